package formats

import (
	"bytes"
	"errors"
	"image/color"
	"testing"
)

// createTGAHeader creates an 18-byte TGA header.
func createTGAHeader(imageType byte, width, height int, bpp byte, descriptor byte) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12] = byte(width)
	hdr[13] = byte(width >> 8)
	hdr[14] = byte(height)
	hdr[15] = byte(height >> 8)
	hdr[16] = bpp
	hdr[17] = descriptor
	return hdr
}

func TestDecodeTGA_Uncompressed(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.Write(createTGAHeader(TGATypeUncompressed, 2, 2, 32, 0))
	// Bottom-up rows, BGRA order.
	buf.Write([]byte{0, 0, 255, 255, 0, 255, 0, 255}) // bottom row: red, green
	buf.Write([]byte{255, 0, 0, 255, 0, 0, 0, 0})     // top row: blue, transparent

	img, err := DecodeTGA(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}

	if got := img.NRGBAAt(0, 1); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("bottom-left = %v, want red", got)
	}
	if got := img.NRGBAAt(1, 1); got != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("bottom-right = %v, want green", got)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("top-left = %v, want blue", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{}) {
		t.Errorf("top-right = %v, want transparent", got)
	}
}

func TestDecodeTGA_RLE(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.Write(createTGAHeader(TGATypeRLE, 3, 1, 24, 0x20))
	buf.Write([]byte{0x81, 10, 20, 30}) // run of 2
	buf.Write([]byte{0x00, 1, 2, 3})    // raw 1

	img, err := DecodeTGA(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeTGA failed: %v", err)
	}

	want := []color.NRGBA{{30, 20, 10, 255}, {30, 20, 10, 255}, {3, 2, 1, 255}}
	for x, c := range want {
		if got := img.NRGBAAt(x, 0); got != c {
			t.Errorf("pixel %d = %v, want %v", x, got, c)
		}
	}
}

func TestDecodeTGA_Errors(t *testing.T) {
	if _, err := DecodeTGA([]byte{1, 2, 3}); !errors.Is(err, ErrTruncatedTGAData) {
		t.Errorf("expected ErrTruncatedTGAData, got %v", err)
	}

	paletted := createTGAHeader(1, 2, 2, 8, 0)
	if _, err := DecodeTGA(paletted); !errors.Is(err, ErrUnsupportedTGAFormat) {
		t.Errorf("expected ErrUnsupportedTGAFormat, got %v", err)
	}

	short := createTGAHeader(TGATypeUncompressed, 4, 4, 24, 0)
	if _, err := DecodeTGA(short); !errors.Is(err, ErrTruncatedTGAData) {
		t.Errorf("expected ErrTruncatedTGAData for missing pixels, got %v", err)
	}
}
