package atlas

import (
	"github.com/Faultbox/midgard-atlas/internal/texture"
	"github.com/Faultbox/midgard-atlas/pkg/math"
)

// BlockSize is the alignment grid and padding of a texture group, as
// fractions of the largest texture resolution.
type BlockSize struct {
	X       float32
	Y       float32
	Padding float32
}

// ComputeBlockSize derives the finest grid on which every texture of the
// group has its compression block and min-resolution texel edges. It reports
// false when a dimension is not a power of two or the textures are too small
// to carry the padding.
func ComputeBlockSize(textures []*texture.Texture) (BlockSize, bool) {
	if len(textures) == 0 {
		return BlockSize{}, false
	}

	maxRes, minRes := 0, int(^uint(0)>>1)
	for _, t := range textures {
		if !math.IsPowerOfTwo(t.Width) || !math.IsPowerOfTwo(t.Height) {
			return BlockSize{}, false
		}
		maxRes = max(maxRes, t.Width, t.Height)
		minRes = min(minRes, t.Width, t.Height)
	}

	lcmX, lcmY := 1, 1
	for _, t := range textures {
		lcmX = math.LCM(lcmX, t.Format.BlockWidth()*(maxRes/t.Width))
		lcmY = math.LCM(lcmY, t.Format.BlockHeight()*(maxRes/t.Height))
	}

	// One min-resolution texel, but never less than 1% of the max resolution.
	texel := maxRes / minRes
	padding := max(texel, maxRes/100)
	if minRes <= padding || maxRes <= padding {
		return BlockSize{}, false
	}

	res := float32(maxRes)
	return BlockSize{
		X:       float32(math.LCM(lcmX, texel)) / res,
		Y:       float32(math.LCM(lcmY, texel)) / res,
		Padding: float32(padding) / res,
	}, true
}

// FitToBlockSize grows every island's bounding box outward onto the block
// grid with at least the padding margin.
func FitToBlockSize(islands []Island, bs BlockSize) {
	for i := range islands {
		is := &islands[i]
		is.Min.X = math.Floor(is.Min.X/bs.X-bs.Padding) * bs.X
		is.Min.Y = math.Floor(is.Min.Y/bs.Y-bs.Padding) * bs.Y
		is.Max.X = math.Ceil(is.Max.X/bs.X+bs.Padding) * bs.X
		is.Max.Y = math.Ceil(is.Max.Y/bs.Y+bs.Padding) * bs.Y
	}
}
