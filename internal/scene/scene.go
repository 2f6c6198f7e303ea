package scene

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-atlas/internal/assets"
	"github.com/Faultbox/midgard-atlas/internal/mesh"
	"github.com/Faultbox/midgard-atlas/internal/optimizer"
	"github.com/Faultbox/midgard-atlas/internal/texture"
	"github.com/Faultbox/midgard-atlas/pkg/formats"
	"github.com/Faultbox/midgard-atlas/pkg/math"
)

// Scene is a loaded manifest.
type Scene struct {
	Meshes    []*mesh.Mesh
	Materials []*optimizer.Material
	Bindings  []optimizer.Binding

	// paths holds the file each texture was loaded from or written to.
	paths map[*texture.Texture]string
}

// Path returns the file backing t, or "".
func (s *Scene) Path(t *texture.Texture) string {
	return s.paths[t]
}

// SetPath records the file t is stored in.
func (s *Scene) SetPath(t *texture.Texture, path string) {
	s.paths[t] = path
}

// Textures returns every texture bound to a material, each once, in
// material order.
func (s *Scene) Textures() []*texture.Texture {
	var out []*texture.Texture
	seen := make(map[*texture.Texture]bool)
	for _, m := range s.Materials {
		for _, prop := range sortedKeys(m.Textures) {
			t := m.Textures[prop]
			if t != nil && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// Load reads a manifest. Texture paths are resolved by am, with the
// manifest directory added as the lowest priority root. defaults controls
// how plain images are encoded unless an entry overrides it.
func Load(path string, am *assets.Manager, defaults formats.LoadOptions) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}

	var mf manifest
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing scene %s: %w", path, err)
	}

	if err := am.AddRoot(filepath.Dir(path)); err != nil {
		return nil, err
	}
	s := &Scene{paths: make(map[*texture.Texture]string)}

	textures := make(map[string]*texture.Texture, len(mf.Textures))
	for _, e := range mf.Textures {
		if _, dup := textures[e.Name]; dup {
			return nil, fmt.Errorf("texture %q defined twice", e.Name)
		}
		t, err := s.loadTexture(e, am, defaults)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", e.Name, err)
		}
		textures[e.Name] = t
	}

	materials := make(map[string]*optimizer.Material, len(mf.Materials))
	for _, e := range mf.Materials {
		if _, dup := materials[e.Name]; dup {
			return nil, fmt.Errorf("material %q defined twice", e.Name)
		}
		m, err := buildMaterial(e, textures)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", e.Name, err)
		}
		materials[e.Name] = m
		s.Materials = append(s.Materials, m)
	}

	for _, e := range mf.Meshes {
		if err := s.addMesh(e, materials); err != nil {
			return nil, fmt.Errorf("mesh %q: %w", e.Name, err)
		}
	}
	return s, nil
}

func (s *Scene) loadTexture(e textureEntry, am *assets.Manager, defaults formats.LoadOptions) (*texture.Texture, error) {
	if e.Color != "" {
		c, err := parseColor(e.Color)
		if err != nil {
			return nil, err
		}
		srgb := e.SRGB != nil && *e.SRGB
		if t := texture.Builtin(c, false); t != nil && e.Name == t.Name {
			return t, nil
		}
		return texture.Solid(e.Name, c, srgb), nil
	}
	if e.Path == "" {
		return nil, fmt.Errorf("needs a path or a color")
	}

	opts := defaults
	if e.Format != "" {
		f, err := texture.ParseFormat(e.Format)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}
	if e.Mips > 0 {
		opts.Mips = e.Mips
	}
	if e.SRGB != nil {
		opts.SRGB = *e.SRGB
	}

	t, err := am.Texture(e.Path, opts)
	if err != nil {
		return nil, err
	}
	// Names in the manifest win over file names.
	t.Name = e.Name
	full, err := am.Resolve(e.Path)
	if err != nil {
		return nil, err
	}
	s.paths[t] = full
	return t, nil
}

func buildMaterial(e materialEntry, textures map[string]*texture.Texture) (*optimizer.Material, error) {
	m := &optimizer.Material{
		Name:        e.Name,
		Textures:    make(map[string]*texture.Texture, len(e.Textures)),
		Unmergeable: e.Unmergeable,
	}
	for prop, name := range e.Textures {
		t, ok := textures[name]
		if !ok {
			return nil, fmt.Errorf("unknown texture %q", name)
		}
		m.Textures[prop] = t
	}
	for _, u := range e.Usages {
		ch, err := optimizer.ParseUVChannel(u.Channel)
		if err != nil {
			return nil, err
		}
		m.Usages = append(m.Usages, optimizer.TextureUsage{Property: u.Property, Channel: ch})
	}
	return m, nil
}

func (s *Scene) addMesh(e meshEntry, materials map[string]*optimizer.Material) error {
	m := &mesh.Mesh{Name: e.Name}
	for i, ve := range e.Vertices {
		v, err := buildVertex(ve)
		if err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
		m.AddVertex(v)
	}

	lookup := func(name string) (*optimizer.Material, error) {
		mat, ok := materials[name]
		if !ok {
			return nil, fmt.Errorf("unknown material %q", name)
		}
		return mat, nil
	}

	for i, se := range e.SubMeshes {
		topo, err := mesh.ParseTopology(se.Topology)
		if err != nil {
			return fmt.Errorf("submesh %d: %w", i, err)
		}
		sm := &mesh.SubMesh{Topology: topo}
		for _, idx := range se.Indices {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("submesh %d: index %d out of range", i, idx)
			}
			sm.Vertices = append(sm.Vertices, m.Vertices[idx])
		}
		m.SubMeshes = append(m.SubMeshes, sm)

		b := optimizer.Binding{SubMesh: mesh.SubMeshID{Mesh: m, Index: i}, Unsafe: se.Unsafe}
		if se.Material != "" {
			if b.Material, err = lookup(se.Material); err != nil {
				return fmt.Errorf("submesh %d: %w", i, err)
			}
		}
		for _, name := range se.Animated {
			mat, err := lookup(name)
			if err != nil {
				return fmt.Errorf("submesh %d: %w", i, err)
			}
			b.Animated = append(b.Animated, mat)
		}
		s.Bindings = append(s.Bindings, b)
	}

	s.Meshes = append(s.Meshes, m)
	return nil
}

func buildVertex(e vertexEntry) (*mesh.Vertex, error) {
	v := &mesh.Vertex{}
	switch len(e.Position) {
	case 0:
	case 3:
		copy(v.Position[:], e.Position)
	default:
		return nil, fmt.Errorf("position has %d components", len(e.Position))
	}
	if len(e.UV) > mesh.MaxUVChannels {
		return nil, fmt.Errorf("%d UV channels, at most %d", len(e.UV), mesh.MaxUVChannels)
	}
	for ch, uv := range e.UV {
		if len(uv) != 2 {
			return nil, fmt.Errorf("uv%d has %d components", ch, len(uv))
		}
		v.UV[ch] = math.Vec2{X: uv[0], Y: uv[1]}
	}
	return v, nil
}

func parseColor(s string) (color.NRGBA, error) {
	var c color.NRGBA
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
		return c, fmt.Errorf("color %q is not #RRGGBBAA", s)
	}
	return c, nil
}

func formatColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
