// Package texture provides the texture record, pixel format metrics and the
// pixel codecs used when building atlases.
package texture

import "fmt"

// Format identifies how texel data is laid out in memory.
type Format int

// Supported pixel formats.
const (
	FormatUnknown Format = iota
	FormatAlpha8
	FormatR8
	FormatRGB24
	FormatRGBA32
	FormatDXT1 // BC1
	FormatDXT5 // BC3
	FormatBC4
	FormatBC5
	FormatBC7
	FormatASTC4x4
	FormatASTC6x6
	FormatASTC8x8
)

// formatInfo describes the storage unit of a format. Uncompressed formats
// use a 1x1 block whose size is the pixel size.
type formatInfo struct {
	name        string
	blockWidth  int
	blockHeight int
	blockBytes  int
	compressed  bool
	hasAlpha    bool
	codec       bool
}

var formats = map[Format]formatInfo{
	FormatAlpha8:  {"Alpha8", 1, 1, 1, false, true, true},
	FormatR8:      {"R8", 1, 1, 1, false, false, true},
	FormatRGB24:   {"RGB24", 1, 1, 3, false, false, true},
	FormatRGBA32:  {"RGBA32", 1, 1, 4, false, true, true},
	FormatDXT1:    {"DXT1", 4, 4, 8, true, false, true},
	FormatDXT5:    {"DXT5", 4, 4, 16, true, true, true},
	FormatBC4:     {"BC4", 4, 4, 8, true, false, true},
	FormatBC5:     {"BC5", 4, 4, 16, true, false, true},
	FormatBC7:     {"BC7", 4, 4, 16, true, true, false},
	FormatASTC4x4: {"ASTC_4x4", 4, 4, 16, true, true, true},
	FormatASTC6x6: {"ASTC_6x6", 6, 6, 16, true, true, true},
	FormatASTC8x8: {"ASTC_8x8", 8, 8, 16, true, true, true},
}

func (f Format) info() formatInfo {
	info, ok := formats[f]
	if !ok {
		panic(fmt.Sprintf("texture: unknown format %d", int(f)))
	}
	return info
}

// String returns a human-readable format name.
func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	return fmt.Sprintf("Unknown(%d)", int(f))
}

// BlockWidth returns the width in texels of one storage block.
func (f Format) BlockWidth() int { return f.info().blockWidth }

// BlockHeight returns the height in texels of one storage block.
func (f Format) BlockHeight() int { return f.info().blockHeight }

// BlockBytes returns the size in bytes of one storage block.
func (f Format) BlockBytes() int { return f.info().blockBytes }

// IsCompressed reports whether f is a block-compressed GPU format.
func (f Format) IsCompressed() bool { return f.info().compressed }

// HasAlpha reports whether sampling f can yield alpha other than one.
func (f Format) HasAlpha() bool { return f.info().hasAlpha }

// HasCodec reports whether texels of f can be decoded and encoded on the CPU.
func (f Format) HasCodec() bool { return f.info().codec }

// BlocksWide returns the number of block columns covering width texels.
func (f Format) BlocksWide(width int) int {
	bw := f.BlockWidth()
	return (width + bw - 1) / bw
}

// BlocksHigh returns the number of block rows covering height texels.
func (f Format) BlocksHigh(height int) int {
	bh := f.BlockHeight()
	return (height + bh - 1) / bh
}

// RowStride returns the byte length of one row of blocks.
func (f Format) RowStride(width int) int {
	return f.BlocksWide(width) * f.BlockBytes()
}

// MipSize returns the byte size of a single mip level of the given size.
func (f Format) MipSize(width, height int) int {
	return f.RowStride(width) * f.BlocksHigh(height)
}

// DataSize returns the byte size of a mip chain with mipCount levels.
func (f Format) DataSize(width, height, mipCount int) int {
	total := 0
	for level := 0; level < mipCount; level++ {
		w, h := MipDimensions(width, height, level)
		total += f.MipSize(w, h)
	}
	return total
}

// MipDimensions returns the texel size of a mip level.
func MipDimensions(width, height, level int) (int, int) {
	return max(1, width>>level), max(1, height>>level)
}

// ParseFormat looks up a format by its String name.
func ParseFormat(name string) (Format, error) {
	for f, info := range formats {
		if info.name == name {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown texture format %q", name)
}
