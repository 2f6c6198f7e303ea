package texture

import (
	"fmt"
	"image"

	astc "github.com/am-sokolov/go-astc-encoder"
)

// astcQuality is the encoder's medium preset.
const astcQuality = 60

func isASTC(f Format) bool {
	return f == FormatASTC4x4 || f == FormatASTC6x6 || f == FormatASTC8x8
}

// astcContext allocates a single-threaded codec for the block footprint of
// format. Texels are handled as stored, so sRGB textures use the LDR profile
// like every other codec here.
func astcContext(format Format) (*astc.Context, error) {
	cfg, err := astc.ConfigInit(astc.ProfileLDR, format.BlockWidth(), format.BlockHeight(), 1, astcQuality, 0)
	if err != nil {
		return nil, fmt.Errorf("astc config for %s: %w", format, err)
	}
	ctx, err := astc.ContextAlloc(&cfg, 1)
	if err != nil {
		return nil, fmt.Errorf("astc context for %s: %w", format, err)
	}
	return ctx, nil
}

func decodeASTC(data []byte, width, height int, format Format) (*image.NRGBA, error) {
	ctx, err := astcContext(format)
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	out := astc.Image{
		DimX:     width,
		DimY:     height,
		DimZ:     1,
		DataType: astc.TypeU8,
		DataU8:   make([]byte, width*height*4),
	}
	if err := ctx.DecompressImage(data[:format.MipSize(width, height)], &out, astc.SwizzleRGBA, 0); err != nil {
		return nil, fmt.Errorf("decoding %s %dx%d: %w", format, width, height, err)
	}
	return &image.NRGBA{
		Pix:    out.DataU8,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

func encodeASTC(img *image.NRGBA, format Format) ([]byte, error) {
	ctx, err := astcContext(format)
	if err != nil {
		return nil, err
	}
	defer ctx.Close()

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	pix := make([]byte, len(img.Pix))
	copy(pix, img.Pix)
	in := astc.Image{
		DimX:     width,
		DimY:     height,
		DimZ:     1,
		DataType: astc.TypeU8,
		DataU8:   pix,
	}
	out := make([]byte, format.MipSize(width, height))
	if err := ctx.CompressImage(&in, astc.SwizzleRGBA, out, 0); err != nil {
		return nil, fmt.Errorf("encoding %s %dx%d: %w", format, width, height, err)
	}
	return out, nil
}
