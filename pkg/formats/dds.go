// Package formats provides readers and writers for texture file formats.
// DDS (DirectDraw Surface) container for block-compressed textures.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-atlas/internal/texture"
)

// DDS format errors.
var (
	ErrInvalidDDSMagic      = errors.New("invalid DDS magic: expected 'DDS '")
	ErrTruncatedDDSData     = errors.New("truncated DDS data")
	ErrUnsupportedDDSFormat = errors.New("unsupported DDS pixel format")
)

const (
	ddsMagic      = "DDS "
	ddsHeaderSize = 124
	ddsPFSize     = 32
)

// Header flags.
const (
	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPitch       = 0x8
	ddsdPixelFormat = 0x1000
	ddsdMipMapCount = 0x20000
	ddsdLinearSize  = 0x80000
)

// Pixel format flags.
const (
	ddpfAlphaPixels = 0x1
	ddpfAlpha       = 0x2
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40
	ddpfLuminance   = 0x20000
)

// Caps flags.
const (
	ddscapsComplex = 0x8
	ddscapsTexture = 0x1000
	ddscapsMipMap  = 0x400000
)

// DXGI format codes used in DX10 extension headers. The ASTC codes follow
// the values reserved in d3d11 headers.
const (
	dxgiR8G8B8A8     = 28
	dxgiR8G8B8A8SRGB = 29
	dxgiR8           = 61
	dxgiA8           = 65
	dxgiBC1          = 71
	dxgiBC1SRGB      = 72
	dxgiBC3          = 77
	dxgiBC3SRGB      = 78
	dxgiBC4          = 80
	dxgiBC5          = 83
	dxgiBC7          = 98
	dxgiBC7SRGB      = 99
	dxgiASTC4x4      = 134
	dxgiASTC4x4SRGB  = 135
	dxgiASTC6x6      = 150
	dxgiASTC6x6SRGB  = 151
	dxgiASTC8x8      = 162
	dxgiASTC8x8SRGB  = 163
	d3d10Texture2D   = 3
	fourCCDX10       = "DX10"
	fourCCDXT1       = "DXT1"
	fourCCDXT5       = "DXT5"
	fourCCATI1       = "ATI1"
	fourCCBC4U       = "BC4U"
	fourCCATI2       = "ATI2"
	fourCCBC5U       = "BC5U"
)

type dxgiEntry struct {
	format texture.Format
	srgb   bool
}

var dxgiFormats = map[uint32]dxgiEntry{
	dxgiR8G8B8A8:     {texture.FormatRGBA32, false},
	dxgiR8G8B8A8SRGB: {texture.FormatRGBA32, true},
	dxgiR8:           {texture.FormatR8, false},
	dxgiA8:           {texture.FormatAlpha8, false},
	dxgiBC1:          {texture.FormatDXT1, false},
	dxgiBC1SRGB:      {texture.FormatDXT1, true},
	dxgiBC3:          {texture.FormatDXT5, false},
	dxgiBC3SRGB:      {texture.FormatDXT5, true},
	dxgiBC4:          {texture.FormatBC4, false},
	dxgiBC5:          {texture.FormatBC5, false},
	dxgiBC7:          {texture.FormatBC7, false},
	dxgiBC7SRGB:      {texture.FormatBC7, true},
	dxgiASTC4x4:      {texture.FormatASTC4x4, false},
	dxgiASTC4x4SRGB:  {texture.FormatASTC4x4, true},
	dxgiASTC6x6:      {texture.FormatASTC6x6, false},
	dxgiASTC6x6SRGB:  {texture.FormatASTC6x6, true},
	dxgiASTC8x8:      {texture.FormatASTC8x8, false},
	dxgiASTC8x8SRGB:  {texture.FormatASTC8x8, true},
}

// DDSPixelFormat mirrors the DDS_PIXELFORMAT structure.
type DDSPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      [4]byte
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

// DDSHeader mirrors the DDS_HEADER structure.
type DDSHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       DDSPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

// DDSHeaderDX10 mirrors the DDS_HEADER_DXT10 extension.
type DDSHeaderDX10 struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// ParseDDS parses a 2D DDS texture. Only the first surface is read.
func ParseDDS(name string, data []byte) (*texture.Texture, error) {
	if len(data) < 4 {
		return nil, ErrTruncatedDDSData
	}
	if string(data[0:4]) != ddsMagic {
		return nil, ErrInvalidDDSMagic
	}

	r := bytes.NewReader(data[4:])

	var hdr DDSHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedDDSData)
	}
	if hdr.Size != ddsHeaderSize || hdr.PixelFormat.Size != ddsPFSize {
		return nil, fmt.Errorf("%w: header size %d, pixel format size %d",
			ErrUnsupportedDDSFormat, hdr.Size, hdr.PixelFormat.Size)
	}

	format, srgb, err := ddsFormat(r, &hdr.PixelFormat)
	if err != nil {
		return nil, err
	}

	mipCount := 1
	if hdr.Flags&ddsdMipMapCount != 0 && hdr.MipMapCount > 0 {
		mipCount = int(hdr.MipMapCount)
	}

	width, height := int(hdr.Width), int(hdr.Height)
	if width == 0 || height == 0 || width > 16384 || height > 16384 {
		return nil, fmt.Errorf("invalid DDS dimensions: %dx%d", width, height)
	}

	size := format.DataSize(width, height, mipCount)
	offset := len(data) - r.Len()
	if offset+size > len(data) {
		return nil, fmt.Errorf("%w: need %d texel bytes, have %d", ErrTruncatedDDSData, size, len(data)-offset)
	}

	texels := make([]byte, size)
	copy(texels, data[offset:offset+size])
	return texture.New(name, width, height, format, mipCount, srgb, texels)
}

// ddsFormat resolves the texture format from the pixel format, reading the
// DX10 extension header when present.
func ddsFormat(r *bytes.Reader, pf *DDSPixelFormat) (texture.Format, bool, error) {
	if pf.Flags&ddpfFourCC != 0 {
		switch string(pf.FourCC[:]) {
		case fourCCDXT1:
			return texture.FormatDXT1, false, nil
		case fourCCDXT5:
			return texture.FormatDXT5, false, nil
		case fourCCATI1, fourCCBC4U:
			return texture.FormatBC4, false, nil
		case fourCCATI2, fourCCBC5U:
			return texture.FormatBC5, false, nil
		case fourCCDX10:
			var ext DDSHeaderDX10
			if err := binary.Read(r, binary.LittleEndian, &ext); err != nil {
				return 0, false, fmt.Errorf("%w: reading DX10 header", ErrTruncatedDDSData)
			}
			if ext.ResourceDimension != d3d10Texture2D {
				return 0, false, fmt.Errorf("%w: resource dimension %d", ErrUnsupportedDDSFormat, ext.ResourceDimension)
			}
			entry, ok := dxgiFormats[ext.DXGIFormat]
			if !ok {
				return 0, false, fmt.Errorf("%w: DXGI format %d", ErrUnsupportedDDSFormat, ext.DXGIFormat)
			}
			return entry.format, entry.srgb, nil
		default:
			return 0, false, fmt.Errorf("%w: FourCC %q", ErrUnsupportedDDSFormat, pf.FourCC[:])
		}
	}

	switch {
	case pf.Flags&ddpfRGB != 0 && pf.RGBBitCount == 32 &&
		pf.RBitMask == 0xFF && pf.GBitMask == 0xFF00 && pf.BBitMask == 0xFF0000:
		return texture.FormatRGBA32, false, nil
	case pf.Flags&ddpfRGB != 0 && pf.RGBBitCount == 24 &&
		pf.RBitMask == 0xFF && pf.GBitMask == 0xFF00 && pf.BBitMask == 0xFF0000:
		return texture.FormatRGB24, false, nil
	case pf.Flags&ddpfLuminance != 0 && pf.RGBBitCount == 8:
		return texture.FormatR8, false, nil
	case pf.Flags&ddpfAlpha != 0 && pf.RGBBitCount == 8:
		return texture.FormatAlpha8, false, nil
	}
	return 0, false, fmt.Errorf("%w: flags 0x%x, %d bits", ErrUnsupportedDDSFormat, pf.Flags, pf.RGBBitCount)
}

// EncodeDDS serializes a texture as DDS. sRGB textures and formats without a
// legacy FourCC use the DX10 extension header.
func EncodeDDS(t *texture.Texture) ([]byte, error) {
	hdr := DDSHeader{
		Size:        ddsHeaderSize,
		Flags:       ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat,
		Height:      uint32(t.Height),
		Width:       uint32(t.Width),
		MipMapCount: uint32(t.MipCount),
		Caps:        ddscapsTexture,
	}
	hdr.PixelFormat.Size = ddsPFSize

	if t.MipCount > 1 {
		hdr.Flags |= ddsdMipMapCount
		hdr.Caps |= ddscapsComplex | ddscapsMipMap
	}
	if t.Format.IsCompressed() {
		hdr.Flags |= ddsdLinearSize
		hdr.PitchOrLinearSize = uint32(t.Format.MipSize(t.Width, t.Height))
	} else {
		hdr.Flags |= ddsdPitch
		hdr.PitchOrLinearSize = uint32(t.Format.RowStride(t.Width))
	}

	var ext *DDSHeaderDX10
	if dxgi, ok := dxgiCode(t.Format, t.SRGB); ok && (t.SRGB || !hasLegacyEncoding(t.Format)) {
		hdr.PixelFormat.Flags = ddpfFourCC
		copy(hdr.PixelFormat.FourCC[:], fourCCDX10)
		ext = &DDSHeaderDX10{DXGIFormat: dxgi, ResourceDimension: d3d10Texture2D, ArraySize: 1}
	} else if !setLegacyPixelFormat(&hdr.PixelFormat, t.Format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDDSFormat, t.Format)
	}

	var buf bytes.Buffer
	buf.WriteString(ddsMagic)
	binary.Write(&buf, binary.LittleEndian, &hdr)
	if ext != nil {
		binary.Write(&buf, binary.LittleEndian, ext)
	}
	buf.Write(t.Data)
	return buf.Bytes(), nil
}

func dxgiCode(format texture.Format, srgb bool) (uint32, bool) {
	for code, entry := range dxgiFormats {
		if entry.format == format && entry.srgb == srgb {
			return code, true
		}
	}
	return 0, false
}

func hasLegacyEncoding(format texture.Format) bool {
	var pf DDSPixelFormat
	return setLegacyPixelFormat(&pf, format)
}

func setLegacyPixelFormat(pf *DDSPixelFormat, format texture.Format) bool {
	setFourCC := func(code string) {
		pf.Flags = ddpfFourCC
		copy(pf.FourCC[:], code)
	}
	switch format {
	case texture.FormatDXT1:
		setFourCC(fourCCDXT1)
	case texture.FormatDXT5:
		setFourCC(fourCCDXT5)
	case texture.FormatBC4:
		setFourCC(fourCCATI1)
	case texture.FormatBC5:
		setFourCC(fourCCATI2)
	case texture.FormatRGBA32:
		pf.Flags = ddpfRGB | ddpfAlphaPixels
		pf.RGBBitCount = 32
		pf.RBitMask, pf.GBitMask, pf.BBitMask, pf.ABitMask = 0xFF, 0xFF00, 0xFF0000, 0xFF000000
	case texture.FormatRGB24:
		pf.Flags = ddpfRGB
		pf.RGBBitCount = 24
		pf.RBitMask, pf.GBitMask, pf.BBitMask = 0xFF, 0xFF00, 0xFF0000
	case texture.FormatR8:
		pf.Flags = ddpfLuminance
		pf.RGBBitCount = 8
		pf.RBitMask = 0xFF
	case texture.FormatAlpha8:
		pf.Flags = ddpfAlpha
		pf.RGBBitCount = 8
		pf.ABitMask = 0xFF
	default:
		return false
	}
	return true
}

