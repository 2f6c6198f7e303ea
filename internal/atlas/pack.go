package atlas

import (
	"slices"

	"github.com/Faultbox/midgard-atlas/pkg/math"
)

// Islands denser than this share of the unit square are never packed.
const maxUsage = 0.5

// AtlasIsland places one island inside the atlas. Its size is fixed at
// creation; only Pivot changes while packing.
type AtlasIsland struct {
	Island int       // index into the island slice
	Pivot  math.Vec2 // top-left corner in source UV units
	size   math.Vec2
}

// NewAtlasIsland wraps island index with the given footprint.
func NewAtlasIsland(index int, size math.Vec2) AtlasIsland {
	return AtlasIsland{Island: index, size: size}
}

// Size returns the footprint of the island.
func (a AtlasIsland) Size() math.Vec2 {
	return a.size
}

// NewAtlasIslands wraps islands sorted by descending height. Islands of equal
// height keep their order.
func NewAtlasIslands(islands []Island) []AtlasIsland {
	out := make([]AtlasIsland, len(islands))
	for i := range islands {
		out[i] = NewAtlasIsland(i, islands[i].Size())
	}
	slices.SortStableFunc(out, func(a, b AtlasIsland) int {
		switch {
		case a.size.Y > b.size.Y:
			return -1
		case a.size.Y < b.size.Y:
			return 1
		}
		return 0
	})
	return out
}

// CandidateSizes returns the atlas sizes to try, smallest area first. It
// reports false when the islands cover half the unit square or more, or one
// of them is half as wide or high as it.
func CandidateSizes(islands []AtlasIsland) ([]math.Vec2, bool) {
	if len(islands) == 0 {
		return nil, false
	}

	var total, longest float32
	var largest math.Vec2
	for _, is := range islands {
		total += is.size.Area()
		longest = max(longest, is.size.MaxComponent())
		largest = math.Max(largest, is.size)
	}
	if total >= maxUsage || longest >= maxUsage {
		return nil, false
	}
	return SizesSmallToBig(total, largest), true
}

// SizesSmallToBig enumerates power-of-two atlas sizes whose area is at least
// useRatio and whose sides fit the largest island, by increasing area and
// then increasing width. The full unit square is never returned.
func SizesSmallToBig(useRatio float32, maxIsland math.Vec2) []math.Vec2 {
	halvings := 0
	for cur := float32(1); cur > useRatio; cur /= 2 {
		halvings++
	}

	minX := math.MinPowerOfTwoAtLeast(maxIsland.X)
	minY := math.MinPowerOfTwoAtLeast(maxIsland.Y)

	area := float32(1)
	for i := 0; i < halvings; i++ {
		area /= 2
	}

	var sizes []math.Vec2
	for ; halvings >= 0; halvings, area = halvings-1, area*2 {
		for x := minX; x <= 1; x *= 2 {
			y := area / x
			if y < minY {
				break
			}
			if y > 1 {
				continue
			}
			if y >= 1 && x >= 1 {
				break
			}
			sizes = append(sizes, math.Vec2{X: x, Y: y})
		}
	}
	return sizes
}

// TryPack places islands on shelves inside size and reports whether all of
// them fit. Islands must be sorted by descending height. Each shelf starts
// with the first unplaced island and is filled first-fit by the ones after
// it. Pivots are written even when packing fails.
func TryPack(islands []AtlasIsland, size math.Vec2) bool {
	placed := make([]bool, len(islands))
	var y float32

	for {
		first := slices.Index(placed, false)
		if first < 0 {
			return true
		}

		start := &islands[first]
		if y+start.size.Y > size.Y {
			return false
		}
		start.Pivot = math.Vec2{X: 0, Y: y}
		x := start.size.X
		placed[first] = true

		for i := first + 1; i < len(islands); i++ {
			if placed[i] {
				continue
			}
			is := &islands[i]
			if x+is.size.X > size.X {
				continue
			}
			is.Pivot = math.Vec2{X: x, Y: y}
			x += is.size.X
			placed[i] = true
		}

		y += start.size.Y
	}
}
