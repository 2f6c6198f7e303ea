package formats

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA format errors.
var (
	ErrTruncatedTGAData     = errors.New("truncated TGA data")
	ErrUnsupportedTGAFormat = errors.New("unsupported TGA format")
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// DecodeTGA decodes an uncompressed (type 2) or RLE (type 10) true-color TGA
// with 24 or 32 bits per pixel into straight-alpha RGBA.
func DecodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < 18 {
		return nil, ErrTruncatedTGAData
	}

	// TGA header
	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped", ErrUnsupportedTGAFormat)
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: type %d", ErrUnsupportedTGAFormat, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedTGAFormat, bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, ErrTruncatedTGAData
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	d := tgaDecoder{
		img:         img,
		src:         data[offset:],
		width:       width,
		height:      height,
		bytesPP:     bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	if imageType == TGATypeUncompressed {
		if len(d.src) < width*height*d.bytesPP {
			return nil, ErrTruncatedTGAData
		}
		for i := 0; i < width*height; i++ {
			d.put(i, d.pixel(i*d.bytesPP))
		}
		return img, nil
	}

	if err := d.decodeRLE(); err != nil {
		return nil, err
	}
	return img, nil
}

type tgaDecoder struct {
	img         *image.NRGBA
	src         []byte
	width       int
	height      int
	bytesPP     int
	topToBottom bool
}

// pixel reads one BGR(A) pixel at byte offset i.
func (d *tgaDecoder) pixel(i int) color.NRGBA {
	c := color.NRGBA{R: d.src[i+2], G: d.src[i+1], B: d.src[i], A: 255}
	if d.bytesPP == 4 {
		c.A = d.src[i+3]
	}
	return c
}

// put stores the n-th pixel in file order, flipping bottom-up images.
func (d *tgaDecoder) put(n int, c color.NRGBA) {
	x := n % d.width
	y := n / d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
}

func (d *tgaDecoder) decodeRLE() error {
	pixelCount := d.width * d.height
	pixelIdx := 0
	dataIdx := 0

	for pixelIdx < pixelCount {
		if dataIdx >= len(d.src) {
			return fmt.Errorf("%w: RLE stream ended at pixel %d", ErrTruncatedTGAData, pixelIdx)
		}
		packet := d.src[dataIdx]
		dataIdx++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// RLE packet - repeat single pixel
			if dataIdx+d.bytesPP > len(d.src) {
				return ErrTruncatedTGAData
			}
			c := d.pixel(dataIdx)
			dataIdx += d.bytesPP
			for i := 0; i < count && pixelIdx < pixelCount; i++ {
				d.put(pixelIdx, c)
				pixelIdx++
			}
			continue
		}

		// Raw packet - read count pixels
		for i := 0; i < count && pixelIdx < pixelCount; i++ {
			if dataIdx+d.bytesPP > len(d.src) {
				return ErrTruncatedTGAData
			}
			d.put(pixelIdx, d.pixel(dataIdx))
			dataIdx += d.bytesPP
			pixelIdx++
		}
	}
	return nil
}
