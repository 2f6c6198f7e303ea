package atlas

import (
	"github.com/Faultbox/midgard-atlas/internal/mesh"
	"github.com/Faultbox/midgard-atlas/internal/texture"
	"github.com/Faultbox/midgard-atlas/pkg/math"
)

// UVUpdate is a new coordinate for one channel of a vertex.
type UVUpdate struct {
	Channel int
	UV      math.Vec2
}

// Result is the outcome of packing one texture group. Textures missing from
// TextureMapping are unchanged.
type Result struct {
	TextureMapping map[*texture.Texture]*texture.Texture
	NewUVs         map[*mesh.Vertex][]UVUpdate
}

// EmptyResult returns a result that changes nothing.
func EmptyResult() Result {
	return Result{
		TextureMapping: map[*texture.Texture]*texture.Texture{},
		NewUVs:         map[*mesh.Vertex][]UVUpdate{},
	}
}

// IsEmpty reports whether the result changes nothing.
func (r Result) IsEmpty() bool {
	return len(r.TextureMapping) == 0 && len(r.NewUVs) == 0
}

// Reason explains why a group was left alone.
type Reason string

// Skip reasons.
const (
	ReasonNone            Reason = ""
	ReasonUnsupportedMesh Reason = "non-triangle topology or UV outside [0,1)"
	ReasonNoIslands       Reason = "no triangles"
	ReasonBlockSize       Reason = "texture size is not a power of two or too small to pad"
	ReasonIslandsTooLarge Reason = "islands too large to pack"
	ReasonNoFit           Reason = "no atlas size fits"
	ReasonBuildFailed     Reason = "building atlas textures failed"
	ReasonNonMeshChannel  Reason = "texture is not sampled by mesh UVs"
)
