// Package config handles atlas tool configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/midgard-atlas/internal/texture"
)

// Config holds all tool settings.
type Config struct {
	Atlas   AtlasConfig   `yaml:"atlas"`
	Texture TextureConfig `yaml:"texture"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// AtlasConfig holds packing settings.
type AtlasConfig struct {
	BlockCopy bool `yaml:"block_copy"` // Copy compressed blocks for single-mip outputs
	NoClip    bool `yaml:"no_clip"`    // Let composited islands bleed into their padding
	Workers   int  `yaml:"workers"`    // Groups packed concurrently
}

// TextureConfig controls how PNG, JPEG, BMP and TGA sources are encoded.
// DDS sources keep their own format.
type TextureConfig struct {
	Format string `yaml:"format"`
	Mips   int    `yaml:"mips"` // 0 = full chain
	SRGB   bool   `yaml:"srgb"`
}

// OutputConfig holds where and how packed textures are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // dds or png
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Atlas: AtlasConfig{
			BlockCopy: true,
			NoClip:    true,
			Workers:   1,
		},
		Texture: TextureConfig{
			Format: "RGBA32",
			Mips:   0,
			SRGB:   true,
		},
		Output: OutputConfig{
			Dir:    "out",
			Format: "dds",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// TextureFormat returns the configured source format.
func (c *Config) TextureFormat() (texture.Format, error) {
	return texture.ParseFormat(c.Texture.Format)
}

// Validate checks values a YAML file or flag could have set wrongly.
func (c *Config) Validate() error {
	if _, err := c.TextureFormat(); err != nil {
		return fmt.Errorf("texture.format: %w", err)
	}
	if c.Texture.Mips < 0 {
		return fmt.Errorf("texture.mips: %d is negative", c.Texture.Mips)
	}
	if c.Output.Format != "dds" && c.Output.Format != "png" {
		return fmt.Errorf("output.format: %q is not dds or png", c.Output.Format)
	}
	if c.Atlas.Workers < 0 {
		return fmt.Errorf("atlas.workers: %d is negative", c.Atlas.Workers)
	}
	return nil
}
