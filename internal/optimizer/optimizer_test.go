package optimizer

import (
	"bytes"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-atlas/internal/atlas"
	"github.com/Faultbox/midgard-atlas/internal/compositor"
	"github.com/Faultbox/midgard-atlas/internal/mesh"
	"github.com/Faultbox/midgard-atlas/internal/texture"
)

func gradient(t *testing.T, name string, w, h int) *texture.Texture {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 99, 255})
		}
	}
	out, err := texture.FromImage(name, img, texture.FormatRGBA32, 1, false)
	require.NoError(t, err)
	return out
}

func solid(t *testing.T, name string, c color.NRGBA) *texture.Texture {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	out, err := texture.FromImage(name, img, texture.FormatRGBA32, 1, true)
	require.NoError(t, err)
	return out
}

func TestRun_AtlasesAndProtectsSharedVertices(t *testing.T) {
	m := triangleMesh("body", tri(0.1, 0.1, 0.1), tri(0.6, 0.6, 0.1))
	// Submesh 1 reuses the last corner of submesh 0.
	shared := m.SubMeshes[0].Vertices[2]
	m.SubMeshes[1].Vertices[0] = shared

	albedo := gradient(t, "albedo", 256, 256)
	a := material("A", map[string]*texture.Texture{"main": albedo}, TextureUsage{"main", UV0})
	locked := material("Locked", map[string]*texture.Texture{"main": tex("locked")}, TextureUsage{"main", UV0})
	locked.Unmergeable = true

	report := New(nil, DefaultOptions(), nil).Run([]Binding{
		{SubMesh: sub(m, 0), Material: a},
		{SubMesh: sub(m, 1), Material: locked},
	})

	require.Len(t, report.Groups, 1)
	require.True(t, report.Groups[0].Atlased(), "reason: %s", report.Groups[0].Reason)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.ClonedVertices)
	assert.Equal(t, 1, report.ReboundProperties)
	assert.Len(t, m.Vertices, 7)

	packed := a.Texture("main")
	assert.NotSame(t, albedo, packed)
	assert.Equal(t, "albedo (UV Packed)", packed.Name)
	assert.Equal(t, []*texture.Texture{packed}, report.PackedTextures())

	assert.Equal(t, uv(0.1, 0.2), shared.UV[0], "the locked submesh keeps its vertex")
	assert.Same(t, shared, m.SubMeshes[1].Vertices[0])

	// The fitted island starts at texel 25 and the atlas is 0.125 wide.
	lo := float32(25) / 256
	remapped := m.SubMeshes[0].Vertices
	assert.NotSame(t, shared, remapped[2])
	assert.InDelta(t, (0.1-lo)/0.125, remapped[0].UV[0].X, 1e-5)
	assert.InDelta(t, (0.2-lo)/0.125, remapped[1].UV[0].X, 1e-5)
	assert.InDelta(t, (0.2-lo)/0.125, remapped[2].UV[0].Y, 1e-5)
}

func TestRun_TwoChannelsOfOneSubMesh(t *testing.T) {
	m := triangleMesh("body", tri(0.1, 0.1, 0.1))
	originals := append([]*mesh.Vertex(nil), m.SubMeshes[0].Vertices...)
	for _, v := range originals {
		v.UV[1] = v.UV[0].Add(uv(0.4, 0.4))
	}

	a := material("A",
		map[string]*texture.Texture{"main": gradient(t, "main", 256, 256), "detail": gradient(t, "detail", 256, 256)},
		TextureUsage{"main", UV0}, TextureUsage{"detail", UV1})

	report := New(nil, DefaultOptions(), nil).Run([]Binding{{SubMesh: sub(m, 0), Material: a}})

	require.Equal(t, 2, report.Atlased())
	assert.Equal(t, 3, report.ClonedVertices, "the second channel clones vertices claimed by the first")

	lo0 := float32(25) / 256
	lo1 := float32(127) / 256
	for i, v := range m.SubMeshes[0].Vertices {
		assert.NotSame(t, originals[i], v)
		want0 := (originals[i].UV[1].X - 0.4 - lo0) / 0.125
		want1 := (originals[i].UV[1].X - lo1) / 0.125
		assert.InDelta(t, want0, v.UV[0].X, 1e-4, "uv0 of vertex %d", i)
		assert.InDelta(t, want1, v.UV[1].X, 1e-4, "uv1 of vertex %d", i)
	}
}

func TestRun_SolidColorsShareOneTexture(t *testing.T) {
	m := triangleMesh("body", tri(0.1, 0.1, 0.1), tri(0.6, 0.6, 0.1))
	c := color.NRGBA{10, 20, 30, 255}
	a := material("A", map[string]*texture.Texture{"main": solid(t, "a", c)}, TextureUsage{"main", UV0})
	b := material("B", map[string]*texture.Texture{"main": solid(t, "b", c)}, TextureUsage{"main", UV0})

	report := New(nil, DefaultOptions(), nil).Run([]Binding{
		{SubMesh: sub(m, 0), Material: a},
		{SubMesh: sub(m, 1), Material: b},
	})

	require.Equal(t, 2, report.Atlased())
	assert.Same(t, a.Texture("main"), b.Texture("main"))
	assert.Equal(t, "Monotone #0A141EFF sRGB", a.Texture("main").Name)
	assert.Equal(t, 1, report.SolidColors)
	assert.Equal(t, 1, report.ReusedSolidColors)
	assert.Len(t, report.PackedTextures(), 1)
}

func TestRun_SkippedGroupsChangeNothing(t *testing.T) {
	m := triangleMesh("body", tri(0.1, 0.1, 0.1), tri(0.6, 0.6, 0.1))
	wide := gradient(t, "wide", 257, 256)
	screen := gradient(t, "screen", 64, 64)
	a := material("A", map[string]*texture.Texture{"main": wide}, TextureUsage{"main", UV0})
	b := material("B", map[string]*texture.Texture{"dither": screen}, TextureUsage{"dither", NonMesh})
	before := m.SubMeshes[0].Vertices[1].UV[0]

	report := New(nil, DefaultOptions(), nil).Run([]Binding{
		{SubMesh: sub(m, 0), Material: a},
		{SubMesh: sub(m, 1), Material: b},
	})

	require.Len(t, report.Groups, 2)
	assert.Equal(t, atlas.ReasonBlockSize, report.Groups[0].Reason)
	assert.Equal(t, atlas.ReasonNonMeshChannel, report.Groups[1].Reason)
	assert.Zero(t, report.Atlased())
	assert.Same(t, wide, a.Texture("main"))
	assert.Same(t, screen, b.Texture("dither"))
	assert.Equal(t, before, m.SubMeshes[0].Vertices[1].UV[0])
	assert.Len(t, m.Vertices, 6)
	assert.Empty(t, report.PackedTextures())
}

func scene(t *testing.T) ([]Binding, []*Material) {
	t.Helper()
	m := triangleMesh("body",
		tri(0.1, 0.1, 0.1), tri(0.6, 0.6, 0.1), tri(0.1, 0.6, 0.1), tri(0.6, 0.1, 0.1))
	var bindings []Binding
	var materials []*Material
	for i := range m.SubMeshes {
		name := string(rune('A' + i))
		mat := material(name, map[string]*texture.Texture{"main": gradient(t, name, 64<<(i%3), 64)}, TextureUsage{"main", UV0})
		materials = append(materials, mat)
		bindings = append(bindings, Binding{SubMesh: sub(m, i), Material: mat})
	}
	return bindings, materials
}

func TestRun_WorkersMatchSequential(t *testing.T) {
	var calls atomic.Int32
	counting := func() compositor.Compositor {
		calls.Add(1)
		return compositor.NewSoftware()
	}

	seqBindings, seqMaterials := scene(t)
	seq := New(nil, DefaultOptions(), counting).Run(seqBindings)
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	opts := DefaultOptions()
	opts.Workers = 3
	parBindings, parMaterials := scene(t)
	par := New(nil, opts, counting).Run(parBindings)
	assert.Equal(t, int32(4), calls.Load(), "one packer per group")

	require.Len(t, par.Groups, len(seq.Groups))
	for i := range seq.Groups {
		assert.Equal(t, seq.Groups[i].Reason, par.Groups[i].Reason)
		assert.Equal(t, seq.Groups[i].Textures, par.Groups[i].Textures)
	}
	for i := range seqMaterials {
		s, p := seqMaterials[i].Texture("main"), parMaterials[i].Texture("main")
		assert.Equal(t, s.Name, p.Name)
		assert.Equal(t, s.Width, p.Width)
		assert.Equal(t, s.Data, p.Data)
	}
	for i := range seqBindings {
		s, p := seqBindings[i].SubMesh.SubMesh(), parBindings[i].SubMesh.SubMesh()
		for j := range s.Vertices {
			assert.Equal(t, s.Vertices[j].UV, p.Vertices[j].UV)
		}
	}
}

func TestReportPrint(t *testing.T) {
	m := triangleMesh("body", tri(0.1, 0.1, 0.1), tri(0.6, 0.6, 0.1))
	a := material("A", map[string]*texture.Texture{"main": gradient(t, "albedo", 64, 64)}, TextureUsage{"main", UV0})
	locked := material("Locked", nil)
	locked.Unmergeable = true

	report := New(nil, DefaultOptions(), nil).Run([]Binding{
		{SubMesh: sub(m, 0), Material: a},
		{SubMesh: sub(m, 1), Material: locked},
	})

	var buf bytes.Buffer
	report.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "1/1 groups atlased")
	assert.Contains(t, out, "group 0 [body[0]:uv0] atlased")
	assert.Contains(t, out, "albedo -> albedo (UV Packed) (8x8)")
	assert.Contains(t, out, "excluded Locked: "+string(ExcludeUnmergeable))
	assert.Contains(t, out, "solid colors: 0 (0 reused)")
}
