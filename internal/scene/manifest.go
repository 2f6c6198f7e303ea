// Package scene reads and writes the YAML manifest describing meshes,
// materials and the texture files they sample.
package scene

// The manifest mirrors the in-memory scene with names in place of
// pointers.
type manifest struct {
	Textures  []textureEntry  `yaml:"textures"`
	Materials []materialEntry `yaml:"materials"`
	Meshes    []meshEntry     `yaml:"meshes"`
}

type textureEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path,omitempty"`
	// Color describes a 1x1 texture as #RRGGBBAA instead of a file.
	Color string `yaml:"color,omitempty"`

	// Overrides for PNG/JPEG/BMP/TGA sources.
	Format string `yaml:"format,omitempty"`
	Mips   int    `yaml:"mips,omitempty"`
	SRGB   *bool  `yaml:"srgb,omitempty"`
}

type usageEntry struct {
	Property string `yaml:"property"`
	Channel  string `yaml:"channel"`
}

type materialEntry struct {
	Name        string            `yaml:"name"`
	Textures    map[string]string `yaml:"textures,omitempty"`
	Usages      []usageEntry      `yaml:"usages,omitempty"`
	Unmergeable bool              `yaml:"unmergeable,omitempty"`
}

type vertexEntry struct {
	Position []float32   `yaml:"position,omitempty,flow"`
	UV       [][]float32 `yaml:"uv,flow"`
}

type subMeshEntry struct {
	Topology string   `yaml:"topology,omitempty"`
	Indices  []int    `yaml:"indices,flow"`
	Material string   `yaml:"material,omitempty"`
	Animated []string `yaml:"animated,omitempty,flow"`
	Unsafe   bool     `yaml:"unsafe,omitempty"`
}

type meshEntry struct {
	Name      string         `yaml:"name"`
	Vertices  []vertexEntry  `yaml:"vertices"`
	SubMeshes []subMeshEntry `yaml:"submeshes"`
}
