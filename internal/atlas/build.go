package atlas

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Faultbox/midgard-atlas/internal/compositor"
	"github.com/Faultbox/midgard-atlas/internal/mesh"
	"github.com/Faultbox/midgard-atlas/internal/texture"
	"github.com/Faultbox/midgard-atlas/pkg/math"
)

// packedSuffix is appended to the name of every packed texture.
const packedSuffix = " (UV Packed)"

// Tolerance when turning island edges into pixel indices.
const pixelEpsilon = 1e-3

// Build produces the packed textures for a placed layout and the UV updates
// moving every island vertex into it.
func (p *Packer) Build(islands []Island, atlasIslands []AtlasIsland, size math.Vec2, textures []*texture.Texture) (Result, error) {
	mapping := make(map[*texture.Texture]*texture.Texture, len(textures))
	for _, src := range textures {
		out, err := p.buildTexture(islands, atlasIslands, size, src)
		if err != nil {
			return Result{}, fmt.Errorf("building %s: %w", src.Name, err)
		}
		mapping[src] = out
	}

	return Result{
		TextureMapping: mapping,
		NewUVs:         remapUVs(islands, atlasIslands, size),
	}, nil
}

func (p *Packer) buildTexture(islands []Island, atlasIslands []AtlasIsland, size math.Vec2, src *texture.Texture) (*texture.Texture, error) {
	destW := math.Round(size.X * float32(src.Width))
	destH := math.Round(size.Y * float32(src.Height))
	mips := min(math.MipChainLength(min(destW, destH)), src.MipCount)
	name := src.Name + packedSuffix

	var (
		out    *texture.Texture
		pixels *image.NRGBA
		err    error
	)
	if p.opts.BlockCopy && src.Format.IsCompressed() && mips == 1 {
		out, err = blockCopy(islands, atlasIslands, src, destW, destH)
		if err != nil {
			return nil, err
		}
		if src.Format.HasCodec() {
			if pixels, err = texture.Decode(out, 0); err != nil {
				return nil, err
			}
		}
	} else {
		pixels, err = p.composite(islands, atlasIslands, src, destW, destH)
		if err != nil {
			return nil, err
		}
	}

	if pixels != nil {
		if c, ok := singleColor(pixels, atlasIslands, size); ok {
			return p.solid(c, src), nil
		}
	}

	if out == nil {
		out, err = texture.FromImage(name, pixels, src.Format, mips, src.SRGB)
		if err != nil {
			return nil, err
		}
	}
	out.Name = name
	out.Readable = src.Readable
	return out, nil
}

// blockCopy moves whole compressed blocks of every island from mip 0 of src
// into a new single-mip texture. Island blocks outside src repeat the nearest
// edge block; blocks outside the destination are skipped.
func blockCopy(islands []Island, atlasIslands []AtlasIsland, src *texture.Texture, destW, destH int) (*texture.Texture, error) {
	f := src.Format
	srcData, err := src.MipData(0)
	if err != nil {
		return nil, err
	}

	bw, bh, bb := f.BlockWidth(), f.BlockHeight(), f.BlockBytes()
	srcStride, destStride := f.RowStride(src.Width), f.RowStride(destW)
	srcCols, srcRows := f.BlocksWide(src.Width), f.BlocksHigh(src.Height)
	destCols, destRows := f.BlocksWide(destW), f.BlocksHigh(destH)
	dest := make([]byte, f.MipSize(destW, destH))

	w, h := float32(src.Width), float32(src.Height)
	for _, ai := range atlasIslands {
		is := &islands[ai.Island]
		cols := ceilDiv(math.Round(ai.size.X*w), bw)
		rows := ceilDiv(math.Round(ai.size.Y*h), bh)
		srcX := floorDiv(math.Round(is.Min.X*w), bw)
		srcY := floorDiv(math.Round(is.Min.Y*h), bh)
		destX := floorDiv(math.Round(ai.Pivot.X*w), bw)
		destY := floorDiv(math.Round(ai.Pivot.Y*h), bh)

		for row := 0; row < rows; row++ {
			dy := destY + row
			if dy < 0 || dy >= destRows {
				continue
			}
			sy := clamp(srcY+row, 0, srcRows-1)
			for col := 0; col < cols; col++ {
				dx := destX + col
				if dx < 0 || dx >= destCols {
					continue
				}
				sx := clamp(srcX+col, 0, srcCols-1)
				copy(dest[dy*destStride+dx*bb:][:bb], srcData[sy*srcStride+sx*bb:][:bb])
			}
		}
	}

	return texture.New(src.Name+packedSuffix, destW, destH, f, 1, src.SRGB, dest)
}

// composite blits every island of src into a scratch target and reads the
// result back.
func (p *Packer) composite(islands []Island, atlasIslands []AtlasIsland, src *texture.Texture, destW, destH int) (*image.NRGBA, error) {
	if p.compositor == nil {
		return nil, fmt.Errorf("no compositor for %s", src.Format)
	}
	img, err := texture.Decode(src, 0)
	if err != nil {
		return nil, err
	}

	rt, err := p.compositor.Acquire(destW, destH)
	if err != nil {
		return nil, err
	}
	defer rt.Release()
	restore := rt.Bind()
	defer restore()

	scale := math.Vec2{X: float32(src.Width), Y: float32(src.Height)}
	for _, ai := range atlasIslands {
		is := &islands[ai.Island]
		params := compositor.BlitParams{
			SrcRect: pixelRect(is.Min, is.Max, scale),
			DstRect: pixelRect(ai.Pivot, ai.Pivot.Add(ai.size), scale),
			NoClip:  p.opts.NoClip,
		}
		if err := rt.Blit(img, params); err != nil {
			return nil, err
		}
	}
	return rt.ReadBack(), nil
}

// singleColor reports whether every pixel covered by an island has the same
// color.
func singleColor(img *image.NRGBA, atlasIslands []AtlasIsland, size math.Vec2) (color.NRGBA, bool) {
	bounds := img.Bounds()
	texSize := math.Vec2{X: float32(bounds.Dx()), Y: float32(bounds.Dy())}

	var common color.NRGBA
	found := false
	for _, ai := range atlasIslands {
		pivot := ai.Pivot.Div(size).Mul(texSize)
		extent := ai.size.Div(size).Mul(texSize)
		x0 := int(math.Floor(pivot.X + pixelEpsilon))
		y0 := int(math.Floor(pivot.Y + pixelEpsilon))
		x1 := x0 + int(math.Ceil(extent.X-pixelEpsilon))
		y1 := y0 + int(math.Ceil(extent.Y-pixelEpsilon))

		r := image.Rect(x0, y0, x1, y1).Intersect(bounds)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				c := img.NRGBAAt(x, y)
				if !found {
					common, found = c, true
				} else if c != common {
					return color.NRGBA{}, false
				}
			}
		}
	}
	return common, found
}

// solid returns the shared texture for a single-color output. Colors made of
// only 0 and 255 channels are linear whatever the source color space.
func (p *Packer) solid(c color.NRGBA, src *texture.Texture) *texture.Texture {
	if t := texture.Builtin(c, !src.Format.HasAlpha()); t != nil {
		return t
	}
	srgb := src.SRGB && !(isExtreme(c.R) && isExtreme(c.G) && isExtreme(c.B))
	return p.colors.Get(texture.ColorKey{Color: c, SRGB: srgb})
}

func isExtreme(v uint8) bool {
	return v == 0 || v == 255
}

func remapUVs(islands []Island, atlasIslands []AtlasIsland, size math.Vec2) map[*mesh.Vertex][]UVUpdate {
	uvs := make(map[*mesh.Vertex][]UVUpdate)
	for _, ai := range atlasIslands {
		is := &islands[ai.Island]
		for _, tri := range is.Triangles {
			for _, v := range tri.V {
				uv := v.UV[tri.Channel].Sub(is.Min).Add(ai.Pivot).Div(size)
				uvs[v] = append(uvs[v], UVUpdate{Channel: tri.Channel, UV: uv})
			}
		}
	}
	return uvs
}

func pixelRect(lo, hi, scale math.Vec2) image.Rectangle {
	return image.Rect(
		math.Round(lo.X*scale.X), math.Round(lo.Y*scale.Y),
		math.Round(hi.X*scale.X), math.Round(hi.Y*scale.Y),
	)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func ceilDiv(a, b int) int {
	return floorDiv(a+b-1, b)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
