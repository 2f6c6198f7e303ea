package texture

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestFormatMetrics(t *testing.T) {
	tests := []struct {
		format     Format
		blockW     int
		blockH     int
		blockBytes int
		compressed bool
	}{
		{FormatRGBA32, 1, 1, 4, false},
		{FormatRGB24, 1, 1, 3, false},
		{FormatDXT1, 4, 4, 8, true},
		{FormatDXT5, 4, 4, 16, true},
		{FormatBC5, 4, 4, 16, true},
		{FormatASTC6x6, 6, 6, 16, true},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := tt.format.BlockWidth(); got != tt.blockW {
				t.Errorf("BlockWidth() = %d, want %d", got, tt.blockW)
			}
			if got := tt.format.BlockHeight(); got != tt.blockH {
				t.Errorf("BlockHeight() = %d, want %d", got, tt.blockH)
			}
			if got := tt.format.BlockBytes(); got != tt.blockBytes {
				t.Errorf("BlockBytes() = %d, want %d", got, tt.blockBytes)
			}
			if got := tt.format.IsCompressed(); got != tt.compressed {
				t.Errorf("IsCompressed() = %v, want %v", got, tt.compressed)
			}
		})
	}
}

func TestMipSize(t *testing.T) {
	if got := FormatDXT1.MipSize(256, 128); got != 64*32*8 {
		t.Errorf("DXT1 256x128 = %d bytes", got)
	}
	// Partial blocks round up.
	if got := FormatDXT5.MipSize(2, 2); got != 16 {
		t.Errorf("DXT5 2x2 = %d bytes, want 16", got)
	}
	if got := FormatASTC6x6.MipSize(256, 256); got != 43*43*16 {
		t.Errorf("ASTC6x6 256x256 = %d bytes", got)
	}
	if got := FormatRGBA32.DataSize(4, 4, 3); got != 64+16+4 {
		t.Errorf("RGBA32 4x4 x3 = %d bytes, want 84", got)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("DXT5")
	if err != nil || f != FormatDXT5 {
		t.Errorf("ParseFormat(DXT5) = %v, %v", f, err)
	}
	if _, err := ParseFormat("PVRTC"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestUnknownFormatPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown format")
		}
	}()
	Format(99).BlockWidth()
}

func TestNewValidatesSize(t *testing.T) {
	_, err := New("bad", 4, 4, FormatRGBA32, 1, false, make([]byte, 10))
	if !errors.Is(err, ErrDataSize) {
		t.Errorf("expected ErrDataSize, got %v", err)
	}

	tex, err := New("ok", 4, 4, FormatRGBA32, 2, false, make([]byte, 64+16))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	mip1, err := tex.MipData(1)
	if err != nil {
		t.Fatalf("MipData(1) failed: %v", err)
	}
	if len(mip1) != 16 {
		t.Errorf("mip 1 is %d bytes, want 16", len(mip1))
	}
	if _, err := tex.MipData(2); !errors.Is(err, ErrMipOutOfRange) {
		t.Errorf("expected ErrMipOutOfRange, got %v", err)
	}
}

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestBlockCodecSolidRoundTrip(t *testing.T) {
	tests := []struct {
		format Format
		in     color.NRGBA
		want   color.NRGBA
	}{
		{FormatDXT1, color.NRGBA{255, 0, 0, 255}, color.NRGBA{255, 0, 0, 255}},
		{FormatDXT5, color.NRGBA{0, 255, 255, 128}, color.NRGBA{0, 255, 255, 128}},
		{FormatBC4, color.NRGBA{77, 10, 10, 255}, color.NRGBA{77, 0, 0, 255}},
		{FormatBC5, color.NRGBA{77, 200, 10, 255}, color.NRGBA{77, 200, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			data, err := EncodePixels(fill(8, 8, tt.in), tt.format)
			if err != nil {
				t.Fatalf("EncodePixels failed: %v", err)
			}
			if len(data) != tt.format.MipSize(8, 8) {
				t.Fatalf("encoded %d bytes, want %d", len(data), tt.format.MipSize(8, 8))
			}
			img, err := DecodePixels(data, 8, 8, tt.format)
			if err != nil {
				t.Fatalf("DecodePixels failed: %v", err)
			}
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					if got := img.NRGBAAt(x, y); got != tt.want {
						t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, tt.want)
					}
				}
			}
		})
	}
}

func TestASTCSolidRoundTrip(t *testing.T) {
	in := color.NRGBA{40, 120, 200, 255}
	for _, format := range []Format{FormatASTC4x4, FormatASTC6x6, FormatASTC8x8} {
		t.Run(format.String(), func(t *testing.T) {
			if !format.HasCodec() {
				t.Fatal("expected a codec")
			}
			// 12x12 leaves partial blocks for the larger footprints.
			data, err := EncodePixels(fill(12, 12, in), format)
			if err != nil {
				t.Fatalf("EncodePixels failed: %v", err)
			}
			if len(data) != format.MipSize(12, 12) {
				t.Fatalf("encoded %d bytes, want %d", len(data), format.MipSize(12, 12))
			}
			img, err := DecodePixels(data, 12, 12, format)
			if err != nil {
				t.Fatalf("DecodePixels failed: %v", err)
			}
			got := img.NRGBAAt(11, 11)
			if absDiff(got.R, in.R) > 1 || absDiff(got.G, in.G) > 1 || absDiff(got.B, in.B) > 1 || got.A != 255 {
				t.Errorf("pixel = %v, want about %v", got, in)
			}
		})
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestDecodeDXT1ThreeColorMode(t *testing.T) {
	// c0 <= c1 selects the three-color mode where index 3 is transparent.
	block := []byte{0x00, 0x00, 0x1F, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}
	img, err := DecodePixels(block, 4, 4, FormatDXT1)
	if err != nil {
		t.Fatalf("DecodePixels failed: %v", err)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{}) {
		t.Errorf("index 3 = %v, want transparent black", got)
	}
}

func TestDecodeNoCodec(t *testing.T) {
	tex := &Texture{Width: 4, Height: 4, Format: FormatBC7, MipCount: 1, Data: make([]byte, 16)}
	if _, err := Decode(tex, 0); !errors.Is(err, ErrNoCodec) {
		t.Errorf("expected ErrNoCodec, got %v", err)
	}
}

func TestUncompressedRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{1, 2, 3, 4})
	src.SetNRGBA(1, 0, color.NRGBA{200, 100, 50, 10})

	data, err := EncodePixels(src, FormatRGBA32)
	if err != nil {
		t.Fatalf("EncodePixels failed: %v", err)
	}
	got, err := DecodePixels(data, 2, 1, FormatRGBA32)
	if err != nil {
		t.Fatalf("DecodePixels failed: %v", err)
	}
	if got.NRGBAAt(1, 0) != (color.NRGBA{200, 100, 50, 10}) {
		t.Errorf("pixel changed: %v", got.NRGBAAt(1, 0))
	}

	rgb, _ := EncodePixels(src, FormatRGB24)
	if len(rgb) != 6 || rgb[3] != 200 {
		t.Errorf("RGB24 encoding = %v", rgb)
	}
}

func TestFromImageMips(t *testing.T) {
	tex, err := FromImage("gen", fill(16, 8, color.NRGBA{10, 20, 30, 255}), FormatRGBA32, 99, true)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if tex.MipCount != 5 {
		t.Errorf("MipCount = %d, want 5", tex.MipCount)
	}
	last, err := Decode(tex, 4)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if last.Bounds().Dx() != 1 || last.Bounds().Dy() != 1 {
		t.Errorf("last mip is %v", last.Bounds())
	}
	if got := last.NRGBAAt(0, 0); got != (color.NRGBA{10, 20, 30, 255}) {
		t.Errorf("solid mip = %v", got)
	}
}

func TestBuiltin(t *testing.T) {
	if Builtin(color.NRGBA{0, 0, 0, 0}, false) != Black {
		t.Error("transparent black should map to Black")
	}
	if Builtin(color.NRGBA{0, 0, 0, 255}, false) != nil {
		t.Error("opaque black should not map to a builtin when alpha counts")
	}
	if Builtin(color.NRGBA{0, 0, 0, 255}, true) != Black {
		t.Error("opaque black should map to Black when alpha is ignored")
	}
	if Builtin(color.NRGBA{255, 255, 255, 255}, false) != White {
		t.Error("white should map to White")
	}
	if Builtin(color.NRGBA{255, 0, 0, 0}, false) != Red {
		t.Error("red should map to Red")
	}
}

func TestColorCache(t *testing.T) {
	cache := NewColorCache()
	key := ColorKey{Color: color.NRGBA{12, 34, 56, 255}, SRGB: true}

	a := cache.Get(key)
	b := cache.Get(key)
	if a != b {
		t.Error("expected the same texture for the same key")
	}
	if a.Name != "Monotone #0C2238FF sRGB" {
		t.Errorf("unexpected name %q", a.Name)
	}

	c := cache.Get(ColorKey{Color: key.Color, SRGB: false})
	if c == a {
		t.Error("color space must be part of the key")
	}

	hits, misses := cache.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("expected empty cache, got %d", cache.Len())
	}
}
