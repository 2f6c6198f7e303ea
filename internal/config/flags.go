package config

import "flag"

// Flags holds the command-line overrides registered on one flag set.
type Flags struct {
	config    *string
	debug     *bool
	outputDir *string
	format    *string
	workers   *int
	clip      *bool
	noBlocks  *bool
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:    fs.String("config", "", "Path to config file"),
		debug:     fs.Bool("debug", false, "Enable debug logging"),
		outputDir: fs.String("o", "", "Output directory"),
		format:    fs.String("format", "", "Output format (dds or png)"),
		workers:   fs.Int("workers", 0, "Groups packed concurrently"),
		clip:      fs.Bool("clip", false, "Clip composited islands to their footprint"),
		noBlocks:  fs.Bool("no-block-copy", false, "Always decode and re-encode textures"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.outputDir != "" {
		cfg.Output.Dir = *f.outputDir
	}
	if *f.format != "" {
		cfg.Output.Format = *f.format
	}
	if *f.workers > 0 {
		cfg.Atlas.Workers = *f.workers
	}
	if *f.clip {
		cfg.Atlas.NoClip = false
	}
	if *f.noBlocks {
		cfg.Atlas.BlockCopy = false
	}
}
