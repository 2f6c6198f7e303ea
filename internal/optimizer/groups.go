package optimizer

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Faultbox/midgard-atlas/internal/mesh"
	"github.com/Faultbox/midgard-atlas/internal/texture"
)

// Exclusion explains why a material is left out of every group.
type Exclusion string

// Exclusion reasons.
const (
	ExcludeUnmergeable      Exclusion = "material is marked unmergeable"
	ExcludeUnsafeAnimation  Exclusion = "material swaps could not be resolved"
	ExcludeEmptySlot        Exclusion = "mesh has an empty material slot"
	ExcludeMultipleUVUsages Exclusion = "a texture is sampled through more than one UV usage"
	ExcludeSharedSubMesh    Exclusion = "shares a submesh with an excluded material"
)

// Group is a set of textures sampled through exactly the same UV channels
// of the same submeshes. Its textures are packed into one layout.
type Group struct {
	UVs      []UVID
	Textures []*texture.Texture
}

// ExcludedMaterial is a material no group will touch.
type ExcludedMaterial struct {
	Material *Material
	Reason   Exclusion
}

type textureUser struct {
	material *Material
	property string
}

// Plan is the grouping of a scene's textures.
type Plan struct {
	Groups   []*Group
	Excluded []ExcludedMaterial

	// users lists the material properties each grouped texture is bound to.
	users map[*texture.Texture][]textureUser
}

// CollectGroups partitions the textures of the mergeable materials by the
// set of submesh UV channels sampling them. Materials that cannot be
// rewritten are excluded, and so is every material sharing a submesh with
// an excluded one, until nothing changes. Groups and textures keep the
// order in which bindings first mention them.
func CollectGroups(bindings []Binding) *Plan {
	order := make(map[mesh.SubMeshID]int)
	emptySlot := make(map[*mesh.Mesh]bool)
	for _, b := range bindings {
		if _, ok := order[b.SubMesh]; !ok {
			order[b.SubMesh] = len(order)
		}
		if b.Material == nil {
			emptySlot[b.SubMesh.Mesh] = true
		}
	}

	var (
		materials []*Material
		users     = make(map[*Material][]mesh.SubMeshID)
		bySubMesh = make(map[mesh.SubMeshID][]*Material)
		excluded  = make(map[*Material]Exclusion)
	)
	exclude := func(m *Material, why Exclusion) {
		if _, ok := excluded[m]; !ok {
			excluded[m] = why
		}
	}

	for _, b := range bindings {
		possible := b.materials()
		switch {
		case emptySlot[b.SubMesh.Mesh]:
			for _, m := range possible {
				exclude(m, ExcludeEmptySlot)
			}
			continue
		case b.Unsafe:
			for _, m := range possible {
				exclude(m, ExcludeUnsafeAnimation)
			}
			continue
		}

		bySubMesh[b.SubMesh] = appendUnique(bySubMesh[b.SubMesh], possible...)
		for _, m := range possible {
			if _, ok := users[m]; !ok {
				materials = append(materials, m)
			}
			users[m] = appendUnique(users[m], b.SubMesh)
		}
	}
	for _, m := range materials {
		if m.Unmergeable {
			exclude(m, ExcludeUnmergeable)
		}
	}

	// A texture must be sampled through a single UV usage.
	patterns := make(map[*texture.Texture][]string)
	samplers := make(map[*texture.Texture][]*Material)
	for _, m := range materials {
		if _, ok := excluded[m]; ok {
			continue
		}
		for _, u := range m.Usages {
			t := m.Texture(u.Property)
			if t == nil {
				continue
			}
			patterns[t] = appendUnique(patterns[t], uvKey(users[m], u.Channel, order))
			samplers[t] = appendUnique(samplers[t], m)
		}
	}
	for _, m := range materials {
		for _, u := range m.Usages {
			if t := m.Texture(u.Property); t != nil && len(patterns[t]) >= 2 {
				for _, s := range samplers[t] {
					exclude(s, ExcludeMultipleUVUsages)
				}
			}
		}
	}

	// Drop excluded materials and everything sharing their submeshes.
	var queue []*Material
	for _, m := range materials {
		if _, ok := excluded[m]; ok {
			queue = append(queue, m)
		}
	}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]

		subs, ok := users[m]
		if !ok {
			continue
		}
		delete(users, m)

		for _, s := range subs {
			others, ok := bySubMesh[s]
			if !ok {
				continue
			}
			delete(bySubMesh, s)
			for _, other := range others {
				if _, ok := excluded[other]; !ok {
					excluded[other] = ExcludeSharedSubMesh
					queue = append(queue, other)
				}
			}
		}
	}

	plan := &Plan{users: make(map[*texture.Texture][]textureUser)}
	groups := make(map[string]*Group)
	for _, m := range materials {
		subs, ok := users[m]
		if !ok {
			continue
		}
		for _, u := range m.Usages {
			t := m.Texture(u.Property)
			if t == nil {
				continue
			}
			key := uvKey(subs, u.Channel, order)
			g, ok := groups[key]
			if !ok {
				g = &Group{UVs: uvIDs(subs, u.Channel, order)}
				groups[key] = g
				plan.Groups = append(plan.Groups, g)
			}
			g.Textures = appendUnique(g.Textures, t)
			plan.users[t] = appendUnique(plan.users[t], textureUser{material: m, property: u.Property})
		}
	}

	seen := make(map[*Material]bool)
	for _, b := range bindings {
		for _, m := range b.materials() {
			if why, ok := excluded[m]; ok && !seen[m] {
				seen[m] = true
				plan.Excluded = append(plan.Excluded, ExcludedMaterial{Material: m, Reason: why})
			}
		}
	}
	return plan
}

// uvIDs returns the channel of every submesh in first-seen order.
func uvIDs(subs []mesh.SubMeshID, channel UVChannel, order map[mesh.SubMeshID]int) []UVID {
	sorted := slices.Clone(subs)
	slices.SortFunc(sorted, func(a, b mesh.SubMeshID) int {
		return order[a] - order[b]
	})
	ids := make([]UVID, len(sorted))
	for i, s := range sorted {
		ids[i] = UVID{SubMesh: s, Channel: channel}
	}
	return ids
}

// uvKey identifies a set of submesh channels independently of its order.
func uvKey(subs []mesh.SubMeshID, channel UVChannel, order map[mesh.SubMeshID]int) string {
	idx := make([]int, len(subs))
	for i, s := range subs {
		idx[i] = order[s]
	}
	slices.Sort(idx)

	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(channel)))
	for _, i := range idx {
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(i))
	}
	return sb.String()
}

func appendUnique[T comparable](s []T, values ...T) []T {
	for _, v := range values {
		if !slices.Contains(s, v) {
			s = append(s, v)
		}
	}
	return s
}
