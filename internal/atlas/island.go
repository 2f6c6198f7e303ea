package atlas

import (
	"fmt"

	"github.com/Faultbox/midgard-atlas/internal/mesh"
	"github.com/Faultbox/midgard-atlas/pkg/math"
)

// Triangle is three vertices placed in UV space by one channel.
type Triangle struct {
	Channel int
	V       [3]*mesh.Vertex
}

// UV returns the coordinate of corner i.
func (t Triangle) UV(i int) math.Vec2 {
	return t.V[i].UV[t.Channel]
}

// SubMeshUse is a submesh sampled through one UV channel.
type SubMeshUse struct {
	SubMesh *mesh.SubMesh
	Channel int
}

// Island is a set of UV-connected triangles and their bounding box.
type Island struct {
	Triangles []Triangle
	Min       math.Vec2
	Max       math.Vec2
}

// Size returns the bounding box extent.
func (is *Island) Size() math.Vec2 {
	return is.Max.Sub(is.Min)
}

// Contains reports whether other's bounding box lies inside is's, edges
// included.
func (is *Island) Contains(other *Island) bool {
	return is.Min.X <= other.Min.X && other.Max.X <= is.Max.X &&
		is.Min.Y <= other.Min.Y && other.Max.Y <= is.Max.Y
}

// CollectTriangles gathers the triangles of every use. It reports false when
// a submesh is not a triangle list or a coordinate on the used channel lies
// outside [0, 1).
func CollectTriangles(uses []SubMeshUse) ([]Triangle, bool) {
	count := 0
	for _, use := range uses {
		if use.Channel < 0 || use.Channel >= mesh.MaxUVChannels {
			panic(fmt.Sprintf("atlas: UV channel %d out of range", use.Channel))
		}
		if use.SubMesh.Topology != mesh.Triangles {
			return nil, false
		}
		for _, v := range use.SubMesh.Vertices {
			if !v.UV[use.Channel].InUnitRange() {
				return nil, false
			}
		}
		count += use.SubMesh.TriangleCount()
	}

	tris := make([]Triangle, 0, count)
	for _, use := range uses {
		verts := use.SubMesh.Vertices
		for i := 0; i+2 < len(verts); i += 3 {
			tris = append(tris, Triangle{
				Channel: use.Channel,
				V:       [3]*mesh.Vertex{verts[i], verts[i+1], verts[i+2]},
			})
		}
	}
	return tris, true
}

// node is one unique UV point in the disjoint-set forest. Only the fields of
// a root are meaningful besides parent.
type node struct {
	parent int
	depth  int
	min    math.Vec2
	max    math.Vec2
	tris   int
	island int
}

type forest []node

func (f forest) find(i int) int {
	root := i
	for f[root].parent != root {
		root = f[root].parent
	}
	for f[i].parent != root {
		next := f[i].parent
		f[i].parent = root
		i = next
	}
	return root
}

func (f forest) union(a, b int) {
	a, b = f.find(a), f.find(b)
	if a == b {
		return
	}
	if f[a].depth < f[b].depth {
		a, b = b, a
	}
	if f[a].depth == f[b].depth {
		f[a].depth++
	}
	f[b].parent = a
	f[a].min = math.Min(f[a].min, f[b].min)
	f[a].max = math.Max(f[a].max, f[b].max)
	f[a].tris += f[b].tris
}

// BuildIslands groups triangles that share UV points into islands. Corners
// with equal coordinates are the same point even on different vertices.
func BuildIslands(tris []Triangle) []Island {
	index := make(map[math.Vec2]int)
	var nodes forest
	corners := make([][3]int, len(tris))

	for i, tri := range tris {
		for c := range tri.V {
			uv := tri.UV(c)
			idx, ok := index[uv]
			if !ok {
				idx = len(nodes)
				index[uv] = idx
				nodes = append(nodes, node{parent: idx, min: uv, max: uv, island: -1})
			}
			corners[i][c] = idx
		}
	}

	for _, c := range corners {
		nodes.union(c[0], c[1])
		nodes.union(c[1], c[2])
		nodes[nodes.find(c[0])].tris++
	}

	var islands []Island
	for i, tri := range tris {
		root := &nodes[nodes.find(corners[i][0])]
		if root.island < 0 {
			root.island = len(islands)
			islands = append(islands, Island{
				Triangles: make([]Triangle, 0, root.tris),
				Min:       root.min,
				Max:       root.max,
			})
		}
		is := &islands[root.island]
		is.Triangles = append(is.Triangles, tri)
	}
	return islands
}

// MergeIslands absorbs every island whose bounding box is contained in
// another's and returns the shortened slice. Equal boxes collapse into the
// lower index.
func MergeIslands(islands []Island) []Island {
	for i := 0; i < len(islands); i++ {
		for j := 0; j < len(islands); j++ {
			if i == j || !islands[i].Contains(&islands[j]) {
				continue
			}
			islands[i].Triangles = append(islands[i].Triangles, islands[j].Triangles...)
			islands = append(islands[:j], islands[j+1:]...)
			j--
			if j < i {
				i--
			}
		}
	}
	return islands
}
