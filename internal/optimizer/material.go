// Package optimizer decides which textures of a scene can share an atlas,
// runs the packer on every group and writes the results back into the
// scene.
package optimizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/midgard-atlas/internal/mesh"
	"github.com/Faultbox/midgard-atlas/internal/texture"
)

// UVChannel is the coordinate set a texture is sampled with.
type UVChannel int

const (
	UV0 UVChannel = iota
	UV1
	UV2
	UV3
	UV4
	UV5
	UV6
	UV7

	// NonMesh marks textures sampled with coordinates that do not come from
	// the mesh, such as screen space or matcap lookups.
	NonMesh UVChannel = 0x100
)

// IsMesh reports whether c names one of the mesh UV channels.
func (c UVChannel) IsMesh() bool {
	return c >= UV0 && c <= UV7
}

func (c UVChannel) String() string {
	if c.IsMesh() {
		return fmt.Sprintf("uv%d", int(c))
	}
	if c == NonMesh {
		return "nonmesh"
	}
	panic(fmt.Sprintf("optimizer: unknown UV channel %d", int(c)))
}

// ParseUVChannel converts a channel name into a UVChannel.
func ParseUVChannel(name string) (UVChannel, error) {
	if name == "nonmesh" {
		return NonMesh, nil
	}
	digits, ok := strings.CutPrefix(name, "uv")
	n, err := strconv.Atoi(digits)
	if !ok || err != nil || !UVChannel(n).IsMesh() {
		return 0, fmt.Errorf("unknown UV channel %q", name)
	}
	return UVChannel(n), nil
}

// TextureUsage says which UV channel samples a material texture property.
type TextureUsage struct {
	Property string
	Channel  UVChannel
}

// Material binds textures to named properties.
type Material struct {
	Name     string
	Textures map[string]*texture.Texture
	Usages   []TextureUsage

	// Unmergeable is set when the shader could not be analyzed or the
	// material is animated in a way that forbids rewriting it.
	Unmergeable bool
}

// Texture returns the texture bound to property, or nil.
func (m *Material) Texture(property string) *texture.Texture {
	return m.Textures[property]
}

// SetTexture rebinds property.
func (m *Material) SetTexture(property string, t *texture.Texture) {
	if m.Textures == nil {
		m.Textures = make(map[string]*texture.Texture)
	}
	m.Textures[property] = t
}

// Binding is the material slot of one submesh.
type Binding struct {
	SubMesh  mesh.SubMeshID
	Material *Material // nil for an empty slot

	// Animated lists materials the slot can be swapped to at runtime.
	Animated []*Material
	// Unsafe is set when the swaps could not be fully resolved.
	Unsafe bool
}

// materials returns the bound material followed by the animated ones.
func (b Binding) materials() []*Material {
	out := make([]*Material, 0, 1+len(b.Animated))
	if b.Material != nil {
		out = append(out, b.Material)
	}
	return append(out, b.Animated...)
}

// UVID names one UV channel of one submesh.
type UVID struct {
	SubMesh mesh.SubMeshID
	Channel UVChannel
}

func (id UVID) String() string {
	return id.SubMesh.String() + ":" + id.Channel.String()
}
