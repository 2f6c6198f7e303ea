package texture

import (
	"encoding/binary"
	"image"
	"image/color"
)

// BC1-BC5 block codecs. Blocks are 4x4 texels, rows of blocks top to bottom.

// expand565 converts a packed RGB565 value to 8-bit channels.
func expand565(c uint16) (r, g, b uint8) {
	r5 := uint8(c >> 11 & 0x1F)
	g6 := uint8(c >> 5 & 0x3F)
	b5 := uint8(c & 0x1F)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// pack565 quantizes 8-bit channels to RGB565 with rounding.
func pack565(r, g, b uint8) uint16 {
	r5 := (uint16(r)*31 + 127) / 255
	g6 := (uint16(g)*63 + 127) / 255
	b5 := (uint16(b)*31 + 127) / 255
	return r5<<11 | g6<<5 | b5
}

// colorPalette returns the four colors of a BC1 color block.
// forceFour selects the four-color mode regardless of endpoint order (BC3).
func colorPalette(c0, c1 uint16, forceFour bool) [4]color.NRGBA {
	r0, g0, b0 := expand565(c0)
	r1, g1, b1 := expand565(c1)
	p := [4]color.NRGBA{
		{r0, g0, b0, 255},
		{r1, g1, b1, 255},
	}
	if c0 > c1 || forceFour {
		p[2] = color.NRGBA{
			uint8((2*int(r0) + int(r1)) / 3),
			uint8((2*int(g0) + int(g1)) / 3),
			uint8((2*int(b0) + int(b1)) / 3),
			255,
		}
		p[3] = color.NRGBA{
			uint8((int(r0) + 2*int(r1)) / 3),
			uint8((int(g0) + 2*int(g1)) / 3),
			uint8((int(b0) + 2*int(b1)) / 3),
			255,
		}
	} else {
		p[2] = color.NRGBA{
			uint8((int(r0) + int(r1)) / 2),
			uint8((int(g0) + int(g1)) / 2),
			uint8((int(b0) + int(b1)) / 2),
			255,
		}
		p[3] = color.NRGBA{}
	}
	return p
}

// alphaPalette returns the eight values of a BC3 alpha / BC4 channel block.
func alphaPalette(a0, a1 uint8) [8]uint8 {
	p := [8]uint8{a0, a1}
	if a0 > a1 {
		for i := 1; i <= 6; i++ {
			p[i+1] = uint8(((7-i)*int(a0) + i*int(a1)) / 7)
		}
	} else {
		for i := 1; i <= 4; i++ {
			p[i+1] = uint8(((5-i)*int(a0) + i*int(a1)) / 5)
		}
		p[6] = 0
		p[7] = 255
	}
	return p
}

func decodeColorBlock(block []byte, forceFour bool) [16]color.NRGBA {
	c0 := binary.LittleEndian.Uint16(block[0:2])
	c1 := binary.LittleEndian.Uint16(block[2:4])
	indices := binary.LittleEndian.Uint32(block[4:8])
	palette := colorPalette(c0, c1, forceFour)

	var out [16]color.NRGBA
	for i := 0; i < 16; i++ {
		out[i] = palette[indices>>(2*i)&3]
	}
	return out
}

func decodeChannelBlock(block []byte) [16]uint8 {
	palette := alphaPalette(block[0], block[1])
	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(block[2+i]) << (8 * i)
	}
	var out [16]uint8
	for i := 0; i < 16; i++ {
		out[i] = palette[bits>>(3*i)&7]
	}
	return out
}

// decodeBlocks decodes block-compressed texels into a new NRGBA image.
func decodeBlocks(data []byte, width, height int, format Format) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	blockBytes := format.BlockBytes()
	stride := format.RowStride(width)

	for by := 0; by < format.BlocksHigh(height); by++ {
		for bx := 0; bx < format.BlocksWide(width); bx++ {
			block := data[by*stride+bx*blockBytes:][:blockBytes]
			var px [16]color.NRGBA

			switch format {
			case FormatDXT1:
				px = decodeColorBlock(block, false)
			case FormatDXT5:
				px = decodeColorBlock(block[8:], true)
				alpha := decodeChannelBlock(block[:8])
				for i := range px {
					px[i].A = alpha[i]
				}
			case FormatBC4:
				red := decodeChannelBlock(block)
				for i := range px {
					px[i] = color.NRGBA{red[i], 0, 0, 255}
				}
			case FormatBC5:
				red := decodeChannelBlock(block[:8])
				green := decodeChannelBlock(block[8:])
				for i := range px {
					px[i] = color.NRGBA{red[i], green[i], 0, 255}
				}
			default:
				panic("texture: decodeBlocks called with " + format.String())
			}

			for i, c := range px {
				x := bx*4 + i%4
				y := by*4 + i/4
				if x < width && y < height {
					img.SetNRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

// fetchBlock reads the 4x4 texels at block (bx, by), clamping at the edges.
func fetchBlock(img *image.NRGBA, bx, by int) [16]color.NRGBA {
	b := img.Bounds()
	var px [16]color.NRGBA
	for i := 0; i < 16; i++ {
		x := min(b.Min.X+bx*4+i%4, b.Max.X-1)
		y := min(b.Min.Y+by*4+i/4, b.Max.Y-1)
		px[i] = img.NRGBAAt(x, y)
	}
	return px
}

func colorDistance(a, b color.NRGBA) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}

// encodeColorBlock writes an 8-byte four-color BC1 block using the bounding
// box of the block's colors as endpoints.
func encodeColorBlock(dst []byte, px [16]color.NRGBA) {
	lo := color.NRGBA{255, 255, 255, 255}
	hi := color.NRGBA{0, 0, 0, 255}
	for _, c := range px {
		lo.R, lo.G, lo.B = min(lo.R, c.R), min(lo.G, c.G), min(lo.B, c.B)
		hi.R, hi.G, hi.B = max(hi.R, c.R), max(hi.G, c.G), max(hi.B, c.B)
	}

	c0 := pack565(hi.R, hi.G, hi.B)
	c1 := pack565(lo.R, lo.G, lo.B)
	if c0 < c1 {
		c0, c1 = c1, c0
	}

	var indices uint32
	if c0 != c1 {
		palette := colorPalette(c0, c1, true)
		for i, c := range px {
			best, bestDist := 0, colorDistance(c, palette[0])
			for j := 1; j < 4; j++ {
				if d := colorDistance(c, palette[j]); d < bestDist {
					best, bestDist = j, d
				}
			}
			indices |= uint32(best) << (2 * i)
		}
	}

	binary.LittleEndian.PutUint16(dst[0:2], c0)
	binary.LittleEndian.PutUint16(dst[2:4], c1)
	binary.LittleEndian.PutUint32(dst[4:8], indices)
}

// encodeChannelBlock writes an 8-byte BC4-style block in eight-value mode.
func encodeChannelBlock(dst []byte, values [16]uint8) {
	a0, a1 := uint8(0), uint8(255)
	for _, v := range values {
		a0 = max(a0, v)
		a1 = min(a1, v)
	}

	var bits uint64
	if a0 != a1 {
		palette := alphaPalette(a0, a1)
		for i, v := range values {
			best, bestDist := 0, 256
			for j, p := range palette {
				d := int(v) - int(p)
				if d < 0 {
					d = -d
				}
				if d < bestDist {
					best, bestDist = j, d
				}
			}
			bits |= uint64(best) << (3 * i)
		}
	}

	dst[0] = a0
	dst[1] = a1
	for i := 0; i < 6; i++ {
		dst[2+i] = byte(bits >> (8 * i))
	}
}

// encodeBlocks compresses img into the given block format.
func encodeBlocks(img *image.NRGBA, format Format) []byte {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	blockBytes := format.BlockBytes()
	stride := format.RowStride(width)
	out := make([]byte, format.MipSize(width, height))

	for by := 0; by < format.BlocksHigh(height); by++ {
		for bx := 0; bx < format.BlocksWide(width); bx++ {
			dst := out[by*stride+bx*blockBytes:][:blockBytes]
			px := fetchBlock(img, bx, by)

			switch format {
			case FormatDXT1:
				encodeColorBlock(dst, px)
			case FormatDXT5:
				var alpha [16]uint8
				for i, c := range px {
					alpha[i] = c.A
				}
				encodeChannelBlock(dst[:8], alpha)
				encodeColorBlock(dst[8:], px)
			case FormatBC4:
				var red [16]uint8
				for i, c := range px {
					red[i] = c.R
				}
				encodeChannelBlock(dst, red)
			case FormatBC5:
				var red, green [16]uint8
				for i, c := range px {
					red[i] = c.R
					green[i] = c.G
				}
				encodeChannelBlock(dst[:8], red)
				encodeChannelBlock(dst[8:], green)
			default:
				panic("texture: encodeBlocks called with " + format.String())
			}
		}
	}
	return out
}
