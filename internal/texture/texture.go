package texture

import (
	"errors"
	"fmt"
)

// Texture errors.
var (
	ErrNoCodec        = errors.New("no CPU codec for texture format")
	ErrDataSize       = errors.New("texture data size does not match format")
	ErrMipOutOfRange  = errors.New("mip level out of range")
	ErrInvalidTexture = errors.New("invalid texture dimensions")
)

// Texture is a 2D texture with an optional mip chain. Data holds every mip
// level back to back, largest first.
type Texture struct {
	Name     string
	Width    int
	Height   int
	Format   Format
	MipCount int
	SRGB     bool
	Readable bool
	Data     []byte
}

// New creates a texture from raw texel data and validates its size.
func New(name string, width, height int, format Format, mipCount int, srgb bool, data []byte) (*Texture, error) {
	if width < 1 || height < 1 || mipCount < 1 {
		return nil, fmt.Errorf("%w: %dx%d with %d mips", ErrInvalidTexture, width, height, mipCount)
	}
	if want := format.DataSize(width, height, mipCount); len(data) != want {
		return nil, fmt.Errorf("%w: %s %dx%d x%d needs %d bytes, got %d",
			ErrDataSize, format, width, height, mipCount, want, len(data))
	}
	return &Texture{
		Name:     name,
		Width:    width,
		Height:   height,
		Format:   format,
		MipCount: mipCount,
		SRGB:     srgb,
		Readable: true,
		Data:     data,
	}, nil
}

// MipOffset returns the byte offset of a mip level inside Data.
func (t *Texture) MipOffset(level int) int {
	return t.Format.DataSize(t.Width, t.Height, level)
}

// MipData returns the bytes of one mip level.
func (t *Texture) MipData(level int) ([]byte, error) {
	if level < 0 || level >= t.MipCount {
		return nil, fmt.Errorf("%w: %d of %d", ErrMipOutOfRange, level, t.MipCount)
	}
	w, h := MipDimensions(t.Width, t.Height, level)
	start := t.MipOffset(level)
	end := start + t.Format.MipSize(w, h)
	if end > len(t.Data) {
		return nil, fmt.Errorf("%w: mip %d ends at %d, data is %d bytes", ErrDataSize, level, end, len(t.Data))
	}
	return t.Data[start:end], nil
}

// String returns a short description for logs.
func (t *Texture) String() string {
	return fmt.Sprintf("%s (%dx%d %s, %d mips)", t.Name, t.Width, t.Height, t.Format, t.MipCount)
}
