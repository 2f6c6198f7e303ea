package optimizer

import (
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/midgard-atlas/internal/atlas"
	"github.com/Faultbox/midgard-atlas/internal/texture"
)

// Replacement is one texture swapped for its packed version.
type Replacement struct {
	Original *texture.Texture
	Packed   *texture.Texture
}

// GroupReport is the outcome of one texture group.
type GroupReport struct {
	UVs          []UVID
	Textures     []string
	Reason       atlas.Reason
	Replacements []Replacement
}

// Atlased reports whether the group was packed.
func (g GroupReport) Atlased() bool {
	return g.Reason == atlas.ReasonNone
}

// Report summarizes an optimization run.
type Report struct {
	RunID             string
	Groups            []GroupReport
	Excluded          []ExcludedMaterial
	ClonedVertices    int
	ReboundProperties int
	SolidColors       int
	// ReusedSolidColors counts groups that collapsed to a color an earlier
	// group already produced.
	ReusedSolidColors int
}

func newReport(runID string, plan *Plan, outcomes []outcome) *Report {
	r := &Report{
		RunID:    runID,
		Excluded: plan.Excluded,
	}
	for i, g := range plan.Groups {
		gr := GroupReport{
			UVs:    g.UVs,
			Reason: outcomes[i].reason,
		}
		for _, t := range g.Textures {
			gr.Textures = append(gr.Textures, t.Name)
			if packed, ok := outcomes[i].result.TextureMapping[t]; ok {
				gr.Replacements = append(gr.Replacements, Replacement{Original: t, Packed: packed})
			}
		}
		r.Groups = append(r.Groups, gr)
	}
	return r
}

// Atlased returns the number of packed groups.
func (r *Report) Atlased() int {
	n := 0
	for _, g := range r.Groups {
		if g.Atlased() {
			n++
		}
	}
	return n
}

// PackedTextures returns every new texture in group order, each once.
// Built-in constant textures are left out.
func (r *Report) PackedTextures() []*texture.Texture {
	var out []*texture.Texture
	for _, g := range r.Groups {
		for _, rep := range g.Replacements {
			if !texture.IsBuiltin(rep.Packed) {
				out = appendUnique(out, rep.Packed)
			}
		}
	}
	return out
}

// Print writes a human readable summary.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Run %s: %d/%d groups atlased\n", r.RunID, r.Atlased(), len(r.Groups))
	for i, g := range r.Groups {
		uvs := make([]string, len(g.UVs))
		for j, id := range g.UVs {
			uvs[j] = id.String()
		}
		status := "atlased"
		if !g.Atlased() {
			status = "skipped: " + string(g.Reason)
		}
		fmt.Fprintf(w, "  group %d [%s] %s\n", i, strings.Join(uvs, " "), status)
		for _, name := range g.Textures {
			fmt.Fprintf(w, "    %s\n", name)
		}
		for _, rep := range g.Replacements {
			fmt.Fprintf(w, "    %s -> %s (%dx%d)\n", rep.Original.Name, rep.Packed.Name, rep.Packed.Width, rep.Packed.Height)
		}
	}
	for _, e := range r.Excluded {
		fmt.Fprintf(w, "  excluded %s: %s\n", e.Material.Name, e.Reason)
	}
	fmt.Fprintf(w, "  cloned vertices: %d, rebound properties: %d, solid colors: %d (%d reused)\n",
		r.ClonedVertices, r.ReboundProperties, r.SolidColors, r.ReusedSolidColors)
}
