package scene

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-atlas/internal/mesh"
	"github.com/Faultbox/midgard-atlas/internal/optimizer"
	"github.com/Faultbox/midgard-atlas/internal/texture"
)

// Save writes the scene as a manifest. Texture paths are stored relative to
// the manifest directory when possible. Textures without a file must be
// 1x1 RGBA32 and are stored as colors.
func (s *Scene) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var mf manifest
	names := make(map[*texture.Texture]string)
	used := make(map[string]bool)
	for _, t := range s.Textures() {
		name := t.Name
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s #%d", t.Name, n)
		}
		used[name] = true
		names[t] = name

		e, err := s.textureEntry(t, name, dir)
		if err != nil {
			return err
		}
		mf.Textures = append(mf.Textures, e)
	}

	for _, m := range s.Materials {
		mf.Materials = append(mf.Materials, materialEntryOf(m, names))
	}

	bindings := make(map[mesh.SubMeshID]optimizer.Binding, len(s.Bindings))
	for _, b := range s.Bindings {
		bindings[b.SubMesh] = b
	}
	for _, m := range s.Meshes {
		mf.Meshes = append(mf.Meshes, meshEntryOf(m, bindings))
	}

	data, err := yaml.Marshal(&mf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Scene) textureEntry(t *texture.Texture, name, dir string) (textureEntry, error) {
	e := textureEntry{Name: name}
	if p, ok := s.paths[t]; ok {
		if rel, err := filepath.Rel(dir, p); err == nil {
			p = rel
		}
		e.Path = filepath.ToSlash(p)
		return e, nil
	}

	if t.Width != 1 || t.Height != 1 || t.Format != texture.FormatRGBA32 {
		return e, fmt.Errorf("texture %q has no file", t.Name)
	}
	e.Color = formatColor(color.NRGBA{t.Data[0], t.Data[1], t.Data[2], t.Data[3]})
	if t.SRGB {
		srgb := true
		e.SRGB = &srgb
	}
	return e, nil
}

func materialEntryOf(m *optimizer.Material, names map[*texture.Texture]string) materialEntry {
	e := materialEntry{Name: m.Name, Unmergeable: m.Unmergeable}
	for _, prop := range sortedKeys(m.Textures) {
		if t := m.Textures[prop]; t != nil {
			if e.Textures == nil {
				e.Textures = make(map[string]string)
			}
			e.Textures[prop] = names[t]
		}
	}
	for _, u := range m.Usages {
		e.Usages = append(e.Usages, usageEntry{Property: u.Property, Channel: u.Channel.String()})
	}
	return e
}

func meshEntryOf(m *mesh.Mesh, bindings map[mesh.SubMeshID]optimizer.Binding) meshEntry {
	e := meshEntry{Name: m.Name}
	index := make(map[*mesh.Vertex]int, len(m.Vertices))
	for i, v := range m.Vertices {
		index[v] = i
		e.Vertices = append(e.Vertices, vertexEntryOf(v))
	}

	for i, sm := range m.SubMeshes {
		se := subMeshEntry{Indices: make([]int, len(sm.Vertices))}
		if sm.Topology != mesh.Triangles {
			se.Topology = sm.Topology.String()
		}
		for j, v := range sm.Vertices {
			se.Indices[j] = index[v]
		}
		if b, ok := bindings[mesh.SubMeshID{Mesh: m, Index: i}]; ok {
			se.Unsafe = b.Unsafe
			if b.Material != nil {
				se.Material = b.Material.Name
			}
			for _, a := range b.Animated {
				se.Animated = append(se.Animated, a.Name)
			}
		}
		e.SubMeshes = append(e.SubMeshes, se)
	}
	return e
}

// vertexEntryOf drops trailing all-zero UV channels.
func vertexEntryOf(v *mesh.Vertex) vertexEntry {
	channels := 1
	for ch := len(v.UV) - 1; ch > 0; ch-- {
		if v.UV[ch].X != 0 || v.UV[ch].Y != 0 {
			channels = ch + 1
			break
		}
	}

	e := vertexEntry{UV: make([][]float32, channels)}
	for ch := range channels {
		e.UV[ch] = []float32{v.UV[ch].X, v.UV[ch].Y}
	}
	if v.Position != ([3]float32{}) {
		e.Position = v.Position[:]
	}
	return e
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
