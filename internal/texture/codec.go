package texture

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Decode converts one mip level of t into straight-alpha RGBA pixels.
func Decode(t *Texture, level int) (*image.NRGBA, error) {
	if !t.Format.HasCodec() {
		return nil, fmt.Errorf("%w: %s", ErrNoCodec, t.Format)
	}
	data, err := t.MipData(level)
	if err != nil {
		return nil, err
	}
	w, h := MipDimensions(t.Width, t.Height, level)
	return DecodePixels(data, w, h, t.Format)
}

// DecodePixels converts raw texels of a single image into RGBA pixels.
func DecodePixels(data []byte, width, height int, format Format) (*image.NRGBA, error) {
	if !format.HasCodec() {
		return nil, fmt.Errorf("%w: %s", ErrNoCodec, format)
	}
	if len(data) < format.MipSize(width, height) {
		return nil, fmt.Errorf("%w: %s %dx%d", ErrDataSize, format, width, height)
	}
	if isASTC(format) {
		return decodeASTC(data, width, height, format)
	}
	if format.IsCompressed() {
		return decodeBlocks(data, width, height, format), nil
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	bpp := format.BlockBytes()
	for i := 0; i < width*height; i++ {
		src := data[i*bpp:]
		dst := img.Pix[i*4:]
		switch format {
		case FormatAlpha8:
			dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, src[0]
		case FormatR8:
			dst[0], dst[1], dst[2], dst[3] = src[0], 0, 0, 255
		case FormatRGB24:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 255
		case FormatRGBA32:
			copy(dst[:4], src[:4])
		default:
			panic("texture: no uncompressed decoder for " + format.String())
		}
	}
	return img, nil
}

// EncodePixels converts RGBA pixels into raw texels of the given format.
// Compressed formats are encoded at normal quality.
func EncodePixels(img *image.NRGBA, format Format) ([]byte, error) {
	if !format.HasCodec() {
		return nil, fmt.Errorf("%w: %s", ErrNoCodec, format)
	}
	img = normalize(img)
	if isASTC(format) {
		return encodeASTC(img, format)
	}
	if format.IsCompressed() {
		return encodeBlocks(img, format), nil
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	bpp := format.BlockBytes()
	out := make([]byte, width*height*bpp)
	for i := 0; i < width*height; i++ {
		src := img.Pix[i*4:]
		dst := out[i*bpp:]
		switch format {
		case FormatAlpha8:
			dst[0] = src[3]
		case FormatR8:
			dst[0] = src[0]
		case FormatRGB24:
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
		case FormatRGBA32:
			copy(dst[:4], src[:4])
		default:
			panic("texture: no uncompressed encoder for " + format.String())
		}
	}
	return out, nil
}

// normalize returns img with a zero origin and tight stride.
func normalize(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == b.Dx()*4 {
		return img
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:][:b.Dx()*4], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return out
}

// ToNRGBA converts any decoded image into straight-alpha RGBA.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return normalize(n)
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}

// GenerateMips returns count levels starting with base; each following level
// is a bilinear half-size reduction of the previous one.
func GenerateMips(base *image.NRGBA, count int) []*image.NRGBA {
	levels := []*image.NRGBA{normalize(base)}
	width, height := base.Bounds().Dx(), base.Bounds().Dy()
	for level := 1; level < count; level++ {
		w, h := MipDimensions(width, height, level)
		prev := levels[level-1]
		next := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.BiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), xdraw.Src, nil)
		levels = append(levels, next)
	}
	return levels
}

// FromImage builds a texture of the given format with mipCount levels.
func FromImage(name string, img *image.NRGBA, format Format, mipCount int, srgb bool) (*Texture, error) {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTexture, width, height)
	}
	mipCount = max(1, min(mipCount, MipChainLengthOf(width, height)))

	var data []byte
	for _, level := range GenerateMips(img, mipCount) {
		texels, err := EncodePixels(level, format)
		if err != nil {
			return nil, err
		}
		data = append(data, texels...)
	}
	return New(name, width, height, format, mipCount, srgb, data)
}

// MipChainLengthOf returns the full mip chain length for a texture size.
func MipChainLengthOf(width, height int) int {
	n := 0
	for w, h := width, height; ; w, h = w/2, h/2 {
		n++
		if w <= 1 && h <= 1 {
			return n
		}
	}
}

// Solid returns a 1x1 RGBA32 texture of a single color.
func Solid(name string, c color.NRGBA, srgb bool) *Texture {
	return &Texture{
		Name:     name,
		Width:    1,
		Height:   1,
		Format:   FormatRGBA32,
		MipCount: 1,
		SRGB:     srgb,
		Readable: false,
		Data:     []byte{c.R, c.G, c.B, c.A},
	}
}
