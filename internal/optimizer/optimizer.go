package optimizer

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-atlas/internal/atlas"
	"github.com/Faultbox/midgard-atlas/internal/compositor"
	"github.com/Faultbox/midgard-atlas/internal/texture"
)

// Options controls an optimization run.
type Options struct {
	Atlas atlas.Options
	// Workers is the number of groups packed at once. Values below two pack
	// sequentially.
	Workers int
}

// DefaultOptions returns sequential packing with the default atlas options.
func DefaultOptions() Options {
	return Options{
		Atlas:   atlas.DefaultOptions(),
		Workers: 1,
	}
}

// Optimizer packs the textures of a scene into atlases.
type Optimizer struct {
	log           *zap.Logger
	opts          Options
	newCompositor func() compositor.Compositor
}

// New creates an optimizer. newCompositor is called once per packer; a nil
// function uses the software compositor.
func New(log *zap.Logger, opts Options, newCompositor func() compositor.Compositor) *Optimizer {
	if log == nil {
		log = zap.NewNop()
	}
	if newCompositor == nil {
		newCompositor = func() compositor.Compositor { return compositor.NewSoftware() }
	}
	return &Optimizer{
		log:           log,
		opts:          opts,
		newCompositor: newCompositor,
	}
}

type outcome struct {
	result atlas.Result
	reason atlas.Reason
}

// Run groups the textures of bindings, packs every group and rewrites the
// scene in place: atlased submeshes get new UVs and their materials the
// packed textures. A group that cannot be packed is left untouched without
// affecting the others.
func (o *Optimizer) Run(bindings []Binding) *Report {
	runID := uuid.New().String()
	log := o.log.With(zap.String("run", runID))

	// Solid colors are shared within one run only.
	colors := texture.NewColorCache()
	defer colors.Clear()

	plan := CollectGroups(bindings)
	log.Info("collected texture groups",
		zap.Int("groups", len(plan.Groups)),
		zap.Int("excluded", len(plan.Excluded)))

	outcomes := o.pack(log, colors, plan.Groups)
	cloned := apply(plan.Groups, outcomes)
	rebound := rebind(plan, outcomes)

	report := newReport(runID, plan, outcomes)
	report.ClonedVertices = cloned
	report.ReboundProperties = rebound
	report.SolidColors = colors.Len()
	report.ReusedSolidColors, _ = colors.Stats()

	log.Info("optimization finished",
		zap.Int("atlased", report.Atlased()),
		zap.Int("skipped", len(report.Groups)-report.Atlased()),
		zap.Int("cloned_vertices", cloned),
		zap.Int("solid_colors", report.SolidColors),
		zap.Int("reused_solid_colors", report.ReusedSolidColors))
	return report
}

// pack runs the packer on every group. Results are indexed like groups so
// they are applied in the same order however they were computed.
func (o *Optimizer) pack(log *zap.Logger, colors *texture.ColorCache, groups []*Group) []outcome {
	out := make([]outcome, len(groups))

	if o.opts.Workers < 2 {
		p := o.packer(log, colors)
		for i, g := range groups {
			out[i] = packGroup(log, p, g)
		}
		return out
	}

	sem := make(chan struct{}, o.opts.Workers)
	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, g *Group) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = packGroup(log, o.packer(log, colors), g)
		}(i, g)
	}
	wg.Wait()
	return out
}

func (o *Optimizer) packer(log *zap.Logger, colors *texture.ColorCache) *atlas.Packer {
	return atlas.NewPacker(log.Named("atlas"), colors, o.newCompositor(), o.opts.Atlas)
}

func packGroup(log *zap.Logger, p *atlas.Packer, g *Group) outcome {
	uses := make([]atlas.SubMeshUse, 0, len(g.UVs))
	for _, id := range g.UVs {
		if !id.Channel.IsMesh() {
			log.Debug("group skipped", zap.Stringer("uv", id), zap.String("reason", string(atlas.ReasonNonMeshChannel)))
			return outcome{result: atlas.EmptyResult(), reason: atlas.ReasonNonMeshChannel}
		}
		uses = append(uses, atlas.SubMeshUse{SubMesh: id.SubMesh.SubMesh(), Channel: int(id.Channel)})
	}

	result, reason := p.MayAtlas(g.Textures, uses)
	return outcome{result: result, reason: reason}
}
