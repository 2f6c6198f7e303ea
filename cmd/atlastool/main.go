// atlastool packs the UV islands of a scene's textures into smaller atlases.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-atlas/internal/assets"
	"github.com/Faultbox/midgard-atlas/internal/atlas"
	"github.com/Faultbox/midgard-atlas/internal/config"
	"github.com/Faultbox/midgard-atlas/internal/logger"
	"github.com/Faultbox/midgard-atlas/internal/optimizer"
	"github.com/Faultbox/midgard-atlas/internal/scene"
	"github.com/Faultbox/midgard-atlas/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "pack":
		cmdPack(args)
	case "islands":
		cmdIslands(args)
	case "inspect", "info":
		cmdInspect(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`atlastool - UV atlas packer

Usage:
  atlastool <command> [options]

Commands:
  pack [options] <scene.yaml>    Pack textures and write the rewritten scene
  islands [options] <scene.yaml> Show texture groups and their UV islands
  inspect <texture>              Show format, size and mips of a texture file
  config [options] [file]        Write the resolved config (default: user config dir)

Options:
  -config <file>    Config file (default ./atlas.yaml)
  -o <dir>          Output directory
  -format dds|png   Output texture format
  -workers <n>      Groups packed concurrently
  -clip             Clip composited islands to their footprint
  -no-block-copy    Always decode and re-encode textures
  -debug            Log every packing decision

Examples:
  atlastool pack -o build scene.yaml
  atlastool islands scene.yaml
  atlastool inspect textures/body.dds
  atlastool config -workers 4 -format png`)
}

func fail(err error) {
	logger.Error("command failed", zap.Error(err))
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// setup parses flags, loads config and initializes logging. minArgs is the
// number of positional arguments the command needs.
func setup(name string, args []string, minArgs int) (*config.Config, *flag.FlagSet) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	if fs.NArg() < minArgs {
		fmt.Fprintf(os.Stderr, "Usage: atlastool %s [options] <scene.yaml>\n", name)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fail(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fail(err)
	}
	return cfg, fs
}

func loadScene(cfg *config.Config, am *assets.Manager, path string) (*scene.Scene, error) {
	format, err := cfg.TextureFormat()
	if err != nil {
		return nil, err
	}
	opts := formats.LoadOptions{Format: format, Mips: cfg.Texture.Mips, SRGB: cfg.Texture.SRGB}

	s, err := scene.Load(path, am, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("scene loaded",
		zap.String("path", path),
		zap.Int("meshes", len(s.Meshes)),
		zap.Int("materials", len(s.Materials)))
	return s, nil
}

func cmdPack(args []string) {
	cfg, fs := setup("pack", args, 1)
	defer logger.Sync()

	if err := pack(cfg, fs.Arg(0), os.Stdout); err != nil {
		fail(err)
	}
}

// pack optimizes the scene at scenePath and writes the packed textures and
// the rewritten manifest under the output directory.
func pack(cfg *config.Config, scenePath string, w io.Writer) error {
	am := assets.NewManager()
	defer am.Close()

	s, err := loadScene(cfg, am, scenePath)
	if err != nil {
		return err
	}

	opts := optimizer.Options{
		Atlas: atlas.Options{
			BlockCopy: cfg.Atlas.BlockCopy,
			NoClip:    cfg.Atlas.NoClip,
		},
		Workers: cfg.Atlas.Workers,
	}
	report := optimizer.New(logger.Named("optimizer"), opts, nil).Run(s.Bindings)

	texDir := filepath.Join(cfg.Output.Dir, "textures")
	taken := make(map[string]bool)
	for _, t := range report.PackedTextures() {
		ext := cfg.Output.Format
		if ext == "png" && !t.Format.HasCodec() {
			logger.Warn("no decoder for PNG output, writing DDS",
				zap.String("texture", t.Name),
				zap.Stringer("format", t.Format))
			ext = "dds"
		}
		path := outputPath(texDir, t.Name, ext, taken)
		if err := formats.SaveTexture(path, t); err != nil {
			return fmt.Errorf("writing %s: %w", t.Name, err)
		}
		s.SetPath(t, path)
		logger.Debug("texture written", zap.String("texture", t.Name), zap.String("path", path))
	}

	out := filepath.Join(cfg.Output.Dir, filepath.Base(scenePath))
	if err := s.Save(out); err != nil {
		return err
	}

	hits, misses := am.Stats()
	logger.Debug("asset cache", zap.Int("hits", hits), zap.Int("misses", misses))

	report.Print(w)
	fmt.Fprintf(w, "Scene written to %s\n", out)
	return nil
}

// outputPath derives a unique file name from a texture name.
func outputPath(dir, name, ext string, taken map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, name)

	file := base + "." + ext
	for n := 2; taken[file]; n++ {
		file = fmt.Sprintf("%s_%d.%s", base, n, ext)
	}
	taken[file] = true
	return filepath.Join(dir, file)
}

func cmdIslands(args []string) {
	cfg, fs := setup("islands", args, 1)
	defer logger.Sync()

	if err := islands(cfg, fs.Arg(0), os.Stdout); err != nil {
		fail(err)
	}
}

// islands prints the texture groups of a scene with their merged islands
// and block grid, without packing anything.
func islands(cfg *config.Config, scenePath string, w io.Writer) error {
	am := assets.NewManager()
	defer am.Close()

	s, err := loadScene(cfg, am, scenePath)
	if err != nil {
		return err
	}
	plan := optimizer.CollectGroups(s.Bindings)

	for i, g := range plan.Groups {
		names := make([]string, len(g.Textures))
		for j, t := range g.Textures {
			names[j] = fmt.Sprintf("%s (%dx%d %s)", t.Name, t.Width, t.Height, t.Format)
		}
		fmt.Fprintf(w, "Group %d: %s\n", i, strings.Join(names, ", "))

		uses := make([]atlas.SubMeshUse, 0, len(g.UVs))
		for _, id := range g.UVs {
			fmt.Fprintf(w, "  %s\n", id)
			if id.Channel.IsMesh() {
				uses = append(uses, atlas.SubMeshUse{SubMesh: id.SubMesh.SubMesh(), Channel: int(id.Channel)})
			}
		}
		if len(uses) < len(g.UVs) {
			fmt.Fprintf(w, "  %s\n", atlas.ReasonNonMeshChannel)
			continue
		}

		tris, ok := atlas.CollectTriangles(uses)
		if !ok {
			fmt.Fprintf(w, "  %s\n", atlas.ReasonUnsupportedMesh)
			continue
		}
		merged := atlas.MergeIslands(atlas.BuildIslands(tris))
		fmt.Fprintf(w, "  %d triangles, %d islands\n", len(tris), len(merged))
		for _, is := range merged {
			fmt.Fprintf(w, "    [%.4f,%.4f]-[%.4f,%.4f] %d triangles\n",
				is.Min.X, is.Min.Y, is.Max.X, is.Max.Y, len(is.Triangles))
		}

		bs, ok := atlas.ComputeBlockSize(g.Textures)
		if !ok {
			fmt.Fprintf(w, "  %s\n", atlas.ReasonBlockSize)
			continue
		}
		atlas.FitToBlockSize(merged, bs)
		sizes, ok := atlas.CandidateSizes(atlas.NewAtlasIslands(merged))
		if !ok {
			fmt.Fprintf(w, "  block %.4fx%.4f padding %.4f: %s\n", bs.X, bs.Y, bs.Padding, atlas.ReasonIslandsTooLarge)
			continue
		}
		fmt.Fprintf(w, "  block %.4fx%.4f padding %.4f, %d candidate sizes\n", bs.X, bs.Y, bs.Padding, len(sizes))
	}

	for _, e := range plan.Excluded {
		fmt.Fprintf(w, "Excluded %s: %s\n", e.Material.Name, e.Reason)
	}
	return nil
}

func cmdInspect(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: atlastool inspect <texture>")
		os.Exit(1)
	}
	if err := inspect(args[0], os.Stdout); err != nil {
		fail(err)
	}
}

func inspect(path string, w io.Writer) error {
	t, err := formats.LoadTexture(path, formats.LoadOptions{})
	if err != nil {
		return err
	}

	f := t.Format
	fmt.Fprintf(w, "File:     %s\n", path)
	fmt.Fprintf(w, "Format:   %s\n", f)
	fmt.Fprintf(w, "Size:     %dx%d\n", t.Width, t.Height)
	fmt.Fprintf(w, "Mips:     %d\n", t.MipCount)
	fmt.Fprintf(w, "sRGB:     %v\n", t.SRGB)
	fmt.Fprintf(w, "Block:    %dx%d, %d bytes\n", f.BlockWidth(), f.BlockHeight(), f.BlockBytes())
	fmt.Fprintf(w, "Data:     %d bytes\n", len(t.Data))
	fmt.Fprintf(w, "Codec:    %v\n", f.HasCodec())
	return nil
}

func cmdConfig(args []string) {
	cfg, fs := setup("config", args, 0)
	defer logger.Sync()

	path, err := writeConfig(cfg, fs.Arg(0))
	if err != nil {
		fail(err)
	}
	fmt.Printf("Config written to %s\n", path)
}

// writeConfig saves the resolved config to path, or to the user config
// directory when path is empty.
func writeConfig(cfg *config.Config, path string) (string, error) {
	if path == "" {
		return config.UserPath(), cfg.Save()
	}
	return path, cfg.SaveTo(path)
}
