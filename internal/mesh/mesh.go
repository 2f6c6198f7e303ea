// Package mesh holds the vertex and submesh records the atlas packer reads
// and rewrites.
package mesh

import (
	"fmt"

	"github.com/Faultbox/midgard-atlas/pkg/math"
)

// MaxUVChannels is the number of texture coordinate sets per vertex.
const MaxUVChannels = 8

// Topology is the primitive type of a submesh.
type Topology int

const (
	Triangles Topology = iota
	Quads
	Lines
	LineStrip
	Points
)

var topologyNames = map[Topology]string{
	Triangles: "triangles",
	Quads:     "quads",
	Lines:     "lines",
	LineStrip: "line_strip",
	Points:    "points",
}

func (t Topology) String() string {
	if name, ok := topologyNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

// ParseTopology converts a topology name into a Topology.
func ParseTopology(name string) (Topology, error) {
	if name == "" {
		return Triangles, nil
	}
	for t, n := range topologyNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown topology %q", name)
}

// Vertex is a mesh corner. Vertices are shared by pointer between submeshes.
type Vertex struct {
	Position [3]float32
	UV       [MaxUVChannels]math.Vec2
}

// Clone returns an independent copy of v.
func (v *Vertex) Clone() *Vertex {
	c := *v
	return &c
}

// TexCoord returns the coordinate on a UV channel.
func (v *Vertex) TexCoord(channel int) math.Vec2 {
	return v.UV[channel]
}

// SetTexCoord overwrites the coordinate on a UV channel.
func (v *Vertex) SetTexCoord(channel int, uv math.Vec2) {
	v.UV[channel] = uv
}

// SubMesh is a list of primitives drawn with one material slot. For
// Triangles every three consecutive vertices form one triangle.
type SubMesh struct {
	Topology Topology
	Vertices []*Vertex
}

// TriangleCount returns the number of complete triangles.
func (s *SubMesh) TriangleCount() int {
	if s.Topology != Triangles {
		return 0
	}
	return len(s.Vertices) / 3
}

// Mesh owns a vertex list and the submeshes indexing into it.
type Mesh struct {
	Name      string
	Vertices  []*Vertex
	SubMeshes []*SubMesh
}

// AddVertex appends v to the mesh vertex list.
func (m *Mesh) AddVertex(v *Vertex) {
	m.Vertices = append(m.Vertices, v)
}

// SubMeshID identifies one submesh of one mesh.
type SubMeshID struct {
	Mesh  *Mesh
	Index int
}

// SubMesh resolves the id.
func (id SubMeshID) SubMesh() *SubMesh {
	return id.Mesh.SubMeshes[id.Index]
}

func (id SubMeshID) String() string {
	return fmt.Sprintf("%s[%d]", id.Mesh.Name, id.Index)
}
