// Package atlas packs the UV islands of a texture group into a smaller
// texture and rewrites the UVs that sample it.
package atlas

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-atlas/internal/compositor"
	"github.com/Faultbox/midgard-atlas/internal/texture"
	"github.com/Faultbox/midgard-atlas/pkg/math"
)

// Options controls how atlas textures are built.
type Options struct {
	// BlockCopy copies compressed blocks directly for single-mip outputs.
	BlockCopy bool
	// NoClip lets composited islands bleed one pixel into their padding.
	NoClip bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BlockCopy: true,
		NoClip:    true,
	}
}

// Packer runs the packing pipeline for texture groups. A Packer is not safe
// for concurrent use; its color cache is.
type Packer struct {
	log        *zap.Logger
	colors     *texture.ColorCache
	compositor compositor.Compositor
	opts       Options
}

// NewPacker creates a packer. A nil logger discards trace output and a nil
// cache gives the packer a private one.
func NewPacker(log *zap.Logger, colors *texture.ColorCache, comp compositor.Compositor, opts Options) *Packer {
	if log == nil {
		log = zap.NewNop()
	}
	if colors == nil {
		colors = texture.NewColorCache()
	}
	return &Packer{
		log:        log,
		colors:     colors,
		compositor: comp,
		opts:       opts,
	}
}

// MayAtlas packs textures sampled by uses. When the group cannot be packed
// it returns an empty result and the reason.
func (p *Packer) MayAtlas(textures []*texture.Texture, uses []SubMeshUse) (Result, Reason) {
	tris, ok := CollectTriangles(uses)
	if !ok {
		return p.skip(ReasonUnsupportedMesh, textures)
	}

	islands := BuildIslands(tris)
	if len(islands) == 0 {
		return p.skip(ReasonNoIslands, textures)
	}
	islands = MergeIslands(islands)

	bs, ok := ComputeBlockSize(textures)
	if !ok {
		return p.skip(ReasonBlockSize, textures)
	}
	p.log.Debug("block size",
		zap.Float32("x", bs.X),
		zap.Float32("y", bs.Y),
		zap.Float32("padding", bs.Padding))

	FitToBlockSize(islands, bs)
	atlasIslands := NewAtlasIslands(islands)

	sizes, ok := CandidateSizes(atlasIslands)
	if !ok {
		return p.skip(ReasonIslandsTooLarge, textures)
	}

	for _, size := range sizes {
		if !TryPack(atlasIslands, size) {
			p.log.Debug("atlas size does not fit", sizeFields(size)...)
			continue
		}
		p.log.Debug("atlas size fits", append(sizeFields(size), zap.Int("islands", len(atlasIslands)))...)

		result, err := p.Build(islands, atlasIslands, size, textures)
		if err != nil {
			p.log.Debug("building atlas failed", zap.Strings("textures", textureNames(textures)), zap.Error(err))
			return EmptyResult(), ReasonBuildFailed
		}
		return result, ReasonNone
	}

	return p.skip(ReasonNoFit, textures)
}

func (p *Packer) skip(reason Reason, textures []*texture.Texture) (Result, Reason) {
	p.log.Debug("textures will not be merged",
		zap.Strings("textures", textureNames(textures)),
		zap.String("reason", string(reason)))
	return EmptyResult(), reason
}

func sizeFields(size math.Vec2) []zap.Field {
	return []zap.Field{zap.Float32("width", size.X), zap.Float32("height", size.Y)}
}

func textureNames(textures []*texture.Texture) []string {
	names := make([]string, len(textures))
	for i, t := range textures {
		names[i] = t.Name
	}
	return names
}
