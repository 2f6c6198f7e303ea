package formats

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder registration
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // BMP decoder registration

	"github.com/Faultbox/midgard-atlas/internal/texture"
)

// LoadOptions controls how plain images are turned into textures.
type LoadOptions struct {
	Format texture.Format // target format for PNG/JPEG/BMP/TGA sources
	Mips   int            // mip levels to generate (0 = full chain)
	SRGB   bool
}

// LoadTexture reads a texture file. DDS files keep their stored format and
// mips; other images are encoded using opts.
func LoadTexture(path string, opts LoadOptions) (*texture.Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading texture: %w", err)
	}
	return DecodeTexture(path, data, opts)
}

// DecodeTexture decodes texture bytes, dispatching on the file extension of name.
func DecodeTexture(name string, data []byte, opts LoadOptions) (*texture.Texture, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".dds" {
		return ParseDDS(name, data)
	}

	var img *image.NRGBA
	if ext == ".tga" {
		tga, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		img = tga
	} else {
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		img = texture.ToNRGBA(decoded)
	}

	format := opts.Format
	if format == texture.FormatUnknown {
		format = texture.FormatRGBA32
	}
	mips := opts.Mips
	if mips <= 0 {
		mips = texture.MipChainLengthOf(img.Bounds().Dx(), img.Bounds().Dy())
	}
	return texture.FromImage(name, img, format, mips, opts.SRGB)
}

// WritePNG writes mip 0 of a texture as PNG.
func WritePNG(w io.Writer, t *texture.Texture) error {
	img, err := texture.Decode(t, 0)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// SaveTexture writes a texture to path, choosing DDS or PNG by extension.
func SaveTexture(path string, t *texture.Texture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if strings.ToLower(filepath.Ext(path)) == ".png" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WritePNG(f, t); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		return f.Close()
	}

	data, err := EncodeDDS(t)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0644)
}
