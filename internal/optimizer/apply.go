package optimizer

import (
	"github.com/Faultbox/midgard-atlas/internal/mesh"
)

// apply writes the new UVs of every packed group into the meshes and
// returns the number of vertices it had to clone.
//
// Vertices of submeshes outside every packed group are claimed up front so
// they are never modified. A vertex is modified in place on its first claim
// and cloned on any later one; within a group all submeshes sharing a
// vertex share its clone.
func apply(groups []*Group, outcomes []outcome) int {
	claimed := make(map[*mesh.Vertex]bool)
	// origin maps clones back to the vertex the packer saw.
	origin := make(map[*mesh.Vertex]*mesh.Vertex)

	merging := make(map[*mesh.SubMesh]bool)
	var meshes []*mesh.Mesh
	for i, g := range groups {
		if outcomes[i].result.IsEmpty() {
			continue
		}
		for _, id := range g.UVs {
			merging[id.SubMesh.SubMesh()] = true
			meshes = appendUnique(meshes, id.SubMesh.Mesh)
		}
	}
	for _, m := range meshes {
		for _, sm := range m.SubMeshes {
			if merging[sm] {
				continue
			}
			for _, v := range sm.Vertices {
				claimed[v] = true
			}
		}
	}

	cloned := 0
	for i, g := range groups {
		result := outcomes[i].result
		if result.IsEmpty() {
			continue
		}

		replaced := make(map[*mesh.Vertex]*mesh.Vertex)
		for _, id := range g.UVs {
			sm := id.SubMesh.SubMesh()
			for j, current := range sm.Vertices {
				if v, ok := replaced[current]; ok {
					sm.Vertices[j] = v
					continue
				}

				key := current
				if o, ok := origin[current]; ok {
					key = o
				}
				updates, ok := result.NewUVs[key]
				if !ok {
					continue
				}

				v := current
				if claimed[current] {
					v = current.Clone()
					origin[v] = key
					id.SubMesh.Mesh.AddVertex(v)
					cloned++
				}
				claimed[v] = true
				replaced[current] = v

				for _, u := range updates {
					v.SetTexCoord(u.Channel, u.UV)
				}
				sm.Vertices[j] = v
			}
		}
	}
	return cloned
}

// rebind points material properties at the packed textures and returns the
// number of properties changed.
func rebind(plan *Plan, outcomes []outcome) int {
	n := 0
	for i, g := range plan.Groups {
		mapping := outcomes[i].result.TextureMapping
		for _, t := range g.Textures {
			packed, ok := mapping[t]
			if !ok {
				continue
			}
			for _, u := range plan.users[t] {
				u.material.SetTexture(u.property, packed)
				n++
			}
		}
	}
	return n
}
