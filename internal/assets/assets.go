// Package assets locates, reads and caches texture files.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Faultbox/midgard-atlas/internal/texture"
	"github.com/Faultbox/midgard-atlas/pkg/formats"
)

// ErrNotFound is returned when no root holds a requested file.
var ErrNotFound = errors.New("file not found")

// Manager resolves texture paths against a list of root directories.
// Decoded textures are cached so every reference to one file shares a
// single *texture.Texture.
type Manager struct {
	roots    []string
	cache    *Cache
	textures map[textureKey]*texture.Texture
	mu       sync.RWMutex
}

type textureKey struct {
	path string
	opts formats.LoadOptions
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache:    NewCache(),
		textures: make(map[textureKey]*texture.Texture),
	}
}

// AddRoot adds a directory to search.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, dir)
	m.mu.Unlock()

	return nil
}

// Resolve returns the file a path refers to. Absolute paths are used as
// they are.
func (m *Manager) Resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return path, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Search roots in reverse order
	for i := len(m.roots) - 1; i >= 0; i-- {
		full := filepath.Join(m.roots[i], path)
		if _, err := os.Stat(full); err == nil {
			return full, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Load reads a file through the byte cache.
func (m *Manager) Load(path string) ([]byte, error) {
	full, err := m.Resolve(path)
	if err != nil {
		return nil, err
	}

	if data, ok := m.cache.Get(full); ok {
		return data, nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", full, err)
	}
	m.cache.Set(full, data)
	return data, nil
}

// Texture loads and decodes a texture file. Loading the same file with the
// same options twice returns the same texture.
func (m *Manager) Texture(path string, opts formats.LoadOptions) (*texture.Texture, error) {
	full, err := m.Resolve(path)
	if err != nil {
		return nil, err
	}
	key := textureKey{path: full, opts: opts}

	m.mu.RLock()
	t, ok := m.textures[key]
	m.mu.RUnlock()
	if ok {
		return t, nil
	}

	data, err := m.Load(full)
	if err != nil {
		return nil, err
	}
	t, err = formats.DecodeTexture(full, data, opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.textures[key]; ok {
		return existing, nil
	}
	m.textures[key] = t
	return t, nil
}

// Stats returns hit and miss counts of the file cache.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close forgets all roots and cached data.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = nil
	m.textures = make(map[textureKey]*texture.Texture)
	m.cache.Clear()
}

// Cache is a simple in-memory cache for file contents.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
