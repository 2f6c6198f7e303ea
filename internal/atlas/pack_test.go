package atlas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-atlas/internal/texture"
	"github.com/Faultbox/midgard-atlas/pkg/math"
)

func placeholder(t *testing.T, name string, w, h int, format texture.Format) *texture.Texture {
	t.Helper()
	tex, err := texture.New(name, w, h, format, 1, false, make([]byte, format.MipSize(w, h)))
	require.NoError(t, err)
	return tex
}

func TestComputeBlockSize(t *testing.T) {
	tests := []struct {
		name     string
		textures []*texture.Texture
		want     BlockSize
	}{
		{
			name:     "single DXT1",
			textures: []*texture.Texture{placeholder(t, "a", 256, 256, texture.FormatDXT1)},
			want:     BlockSize{X: 4.0 / 256, Y: 4.0 / 256, Padding: 2.0 / 256},
		},
		{
			name: "mixed resolutions",
			textures: []*texture.Texture{
				placeholder(t, "a", 256, 256, texture.FormatDXT1),
				placeholder(t, "b", 128, 128, texture.FormatRGBA32),
			},
			want: BlockSize{X: 4.0 / 256, Y: 4.0 / 256, Padding: 2.0 / 256},
		},
		{
			name: "min texel wider than compression block",
			textures: []*texture.Texture{
				placeholder(t, "a", 1024, 1024, texture.FormatRGBA32),
				placeholder(t, "b", 64, 64, texture.FormatDXT5),
			},
			// DXT5 block is 4*16 = 64 max-res pixels; one 64px texel is 16.
			want: BlockSize{X: 64.0 / 1024, Y: 64.0 / 1024, Padding: 16.0 / 1024},
		},
		{
			name: "non-square",
			textures: []*texture.Texture{
				placeholder(t, "a", 512, 128, texture.FormatDXT1),
			},
			// Block height covers 4*(512/128) = 16 max-res pixels.
			want: BlockSize{X: 4.0 / 512, Y: 16.0 / 512, Padding: 5.0 / 512},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputeBlockSize(tt.textures)
			require.True(t, ok)
			assert.InDelta(t, tt.want.X, got.X, 1e-7)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-7)
			assert.InDelta(t, tt.want.Padding, got.Padding, 1e-7)
		})
	}
}

func TestComputeBlockSize_Infeasible(t *testing.T) {
	_, ok := ComputeBlockSize([]*texture.Texture{placeholder(t, "odd", 257, 256, texture.FormatRGBA32)})
	assert.False(t, ok, "257 is not a power of two")

	_, ok = ComputeBlockSize([]*texture.Texture{placeholder(t, "dot", 1, 1, texture.FormatRGBA32)})
	assert.False(t, ok, "a 1x1 texture cannot hold padding")

	_, ok = ComputeBlockSize([]*texture.Texture{
		placeholder(t, "big", 256, 256, texture.FormatRGBA32),
		placeholder(t, "tiny", 2, 2, texture.FormatRGBA32),
	})
	assert.False(t, ok, "padding of 128 exceeds the 2px texture")

	_, ok = ComputeBlockSize(nil)
	assert.False(t, ok)
}

func TestFitToBlockSize(t *testing.T) {
	bs := BlockSize{X: 0.25, Y: 0.125, Padding: 0.1}
	islands := []Island{{Min: uv(0.3, 0.3), Max: uv(0.6, 0.6)}}

	FitToBlockSize(islands, bs)

	assert.InDelta(t, 0.25, islands[0].Min.X, 1e-6)
	assert.InDelta(t, 0.25, islands[0].Min.Y, 1e-6)
	assert.InDelta(t, 0.75, islands[0].Max.X, 1e-6)
	assert.InDelta(t, 0.625, islands[0].Max.Y, 1e-6)
}

func TestFitToBlockSize_OnGrid(t *testing.T) {
	bs := BlockSize{X: 4.0 / 256, Y: 4.0 / 256, Padding: 2.0 / 256}
	islands := []Island{
		{Min: uv(0.1, 0.13), Max: uv(0.2, 0.31)},
		{Min: uv(0, 0), Max: uv(0.5, 0.5)},
	}
	orig := append([]Island(nil), islands...)

	FitToBlockSize(islands, bs)

	for i, is := range islands {
		for _, edge := range []float32{is.Min.X / bs.X, is.Min.Y / bs.Y, is.Max.X / bs.X, is.Max.Y / bs.Y} {
			assert.InDelta(t, float32(math.Round(edge)), edge, 1e-3, "island %d edge off grid", i)
		}
		assert.Less(t, is.Min.X, orig[i].Min.X)
		assert.Less(t, is.Min.Y, orig[i].Min.Y)
		assert.Greater(t, is.Max.X, orig[i].Max.X)
		assert.Greater(t, is.Max.Y, orig[i].Max.Y)
	}
}

func TestNewAtlasIslands_SortedByHeight(t *testing.T) {
	islands := []Island{
		{Max: uv(0.1, 0.1)},
		{Max: uv(0.2, 0.3)},
		{Max: uv(0.3, 0.1)},
	}

	got := NewAtlasIslands(islands)

	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Island)
	assert.Equal(t, 0, got[1].Island, "equal heights keep input order")
	assert.Equal(t, 2, got[2].Island)
	assert.Equal(t, uv(0.2, 0.3), got[0].Size())
}

func sized(sizes ...math.Vec2) []AtlasIsland {
	out := make([]AtlasIsland, len(sizes))
	for i, s := range sizes {
		out[i] = NewAtlasIsland(i, s)
	}
	return out
}

func TestCandidateSizes_AreaBoundary(t *testing.T) {
	var full []math.Vec2
	for i := 0; i < 8; i++ {
		full = append(full, uv(0.25, 0.25))
	}
	_, ok := CandidateSizes(sized(full...))
	assert.False(t, ok, "total area of exactly 0.5 is rejected")

	under := append([]math.Vec2(nil), full[:7]...)
	under = append(under, uv(0.25, 0.249996))
	sizes, ok := CandidateSizes(sized(under...))
	require.True(t, ok, "total area of 0.499999 proceeds")
	assert.NotEmpty(t, sizes)
}

func TestCandidateSizes_LongIslandRejected(t *testing.T) {
	_, ok := CandidateSizes(sized(uv(0.5, 0.01)))
	assert.False(t, ok)

	_, ok = CandidateSizes(sized(uv(0.01, 0.5)))
	assert.False(t, ok)

	_, ok = CandidateSizes(nil)
	assert.False(t, ok)
}

func TestSizesSmallToBig(t *testing.T) {
	got := SizesSmallToBig(0.499999, uv(0.25, 0.25))

	want := []math.Vec2{
		uv(0.25, 1), uv(0.5, 0.5), uv(1, 0.25),
		uv(0.5, 1), uv(1, 0.5),
	}
	assert.Equal(t, want, got)
}

func TestSizesSmallToBig_RespectsLargestIsland(t *testing.T) {
	got := SizesSmallToBig(0.01, uv(0.3, 0.05))

	require.NotEmpty(t, got)
	assert.Equal(t, uv(0.5, 0.0625), got[0])
	prev := float32(0)
	for _, s := range got {
		assert.GreaterOrEqual(t, s.X, float32(0.5))
		assert.GreaterOrEqual(t, s.Y, float32(0.0625))
		assert.GreaterOrEqual(t, s.Area(), prev, "areas never shrink")
		assert.False(t, s.X >= 1 && s.Y >= 1, "the unit square is never a candidate")
		prev = s.Area()
	}
}

func TestTryPack_TwoIslandsShareShelf(t *testing.T) {
	islands := sized(uv(0.20, 0.30), uv(0.25, 0.10))

	require.True(t, TryPack(islands, uv(0.5, 0.5)))
	assert.Equal(t, uv(0, 0), islands[0].Pivot)
	assert.InDelta(t, 0.20, islands[1].Pivot.X, 1e-6)
	assert.Equal(t, float32(0), islands[1].Pivot.Y)
}

func TestTryPack_ThirdShelfOverflows(t *testing.T) {
	islands := sized(uv(0.3, 0.3), uv(0.3, 0.3), uv(0.3, 0.3))

	assert.False(t, TryPack(islands, uv(0.5, 0.5)))
}

func TestTryPack_FirstFitFillsShelf(t *testing.T) {
	// The second island does not fit beside the first; the third does.
	islands := sized(uv(0.3, 0.2), uv(0.25, 0.15), uv(0.1, 0.1), uv(0.2, 0.05))

	require.True(t, TryPack(islands, uv(0.5, 0.5)))
	assert.Equal(t, uv(0, 0), islands[0].Pivot)
	assert.InDelta(t, 0.3, islands[2].Pivot.X, 1e-6)
	assert.Equal(t, float32(0), islands[2].Pivot.Y)
	assert.Equal(t, float32(0), islands[1].Pivot.X)
	assert.InDelta(t, 0.2, islands[1].Pivot.Y, 1e-6)
	assert.InDelta(t, 0.25, islands[3].Pivot.X, 1e-6)
	assert.InDelta(t, 0.2, islands[3].Pivot.Y, 1e-6)
}

func TestTryPack_ExactFit(t *testing.T) {
	islands := sized(uv(0.25, 0.25), uv(0.25, 0.25), uv(0.25, 0.25), uv(0.25, 0.25))

	require.True(t, TryPack(islands, uv(0.5, 0.5)), "edges touching the border fit")
	assert.Equal(t, uv(0.25, 0.25), islands[3].Pivot)
}
