package texture

import (
	"fmt"
	"image/color"
	"sync"
)

// Built-in constant textures shared by every run. Their color space does not
// matter because every channel is 0 or 1.
var (
	Black = Solid("Black", color.NRGBA{0, 0, 0, 0}, false)
	White = Solid("White", color.NRGBA{255, 255, 255, 255}, false)
	Red   = Solid("Red", color.NRGBA{255, 0, 0, 0}, false)
)

// Builtin returns the constant texture matching c, or nil. When ignoreAlpha
// is set only the color channels are compared.
func Builtin(c color.NRGBA, ignoreAlpha bool) *Texture {
	for _, t := range []*Texture{Black, White, Red} {
		b := color.NRGBA{t.Data[0], t.Data[1], t.Data[2], t.Data[3]}
		if ignoreAlpha {
			b.A = c.A
		}
		if b == c {
			return t
		}
	}
	return nil
}

// IsBuiltin reports whether t is one of the constant textures.
func IsBuiltin(t *Texture) bool {
	return t == Black || t == White || t == Red
}

// ColorKey identifies a synthesized single-color texture.
type ColorKey struct {
	Color color.NRGBA
	SRGB  bool
}

// ColorCache holds single-color textures synthesized during one optimization
// run so identical monotone outputs share one texture.
type ColorCache struct {
	textures map[ColorKey]*Texture
	mu       sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewColorCache creates an empty cache.
func NewColorCache() *ColorCache {
	return &ColorCache{
		textures: make(map[ColorKey]*Texture),
	}
}

// Get returns the texture for key, creating and storing it on first use.
func (c *ColorCache) Get(key ColorKey) *Texture {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.textures[key]; ok {
		c.hits++
		return t
	}
	c.misses++

	space := "Linear"
	if key.SRGB {
		space = "sRGB"
	}
	col := key.Color
	name := fmt.Sprintf("Monotone #%02X%02X%02X%02X %s", col.R, col.G, col.B, col.A, space)
	t := Solid(name, col, key.SRGB)
	c.textures[key] = t
	return t
}

// Len returns the number of cached textures.
func (c *ColorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.textures)
}

// Clear drops every cached texture.
func (c *ColorCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.textures = make(map[ColorKey]*Texture)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *ColorCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
