package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileName is the config file looked up in the working directory and in
// ConfigDir.
const fileName = "atlas.yaml"

// UserPath returns the config file location inside ConfigDir.
func UserPath() string {
	return filepath.Join(ConfigDir(), fileName)
}

// Save writes the config to UserPath, where later runs pick it up.
func (c *Config) Save() error {
	return c.SaveTo(UserPath())
}

// SaveTo validates the config and writes it to path as YAML.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
