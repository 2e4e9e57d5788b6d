package config

import (
	"flag"
	"strings"
)

// Flags are the command-line overrides shared by splattool subcommands.
type Flags struct {
	fs *flag.FlagSet

	config     *string
	debug      *bool
	formats    *string
	outDir     *string
	basename   *string
	maxSH      *int
	minOpacity *float64
	selected   *bool
	strict     *bool
	splats     *int
	seed       *int64
	assetDir   *string
	orbit      *bool
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:         fs,
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		formats:    fs.String("formats", "", "Comma-separated outputs (ply,compressed,splat,html,zip)"),
		outDir:     fs.String("out", "", "Output directory"),
		basename:   fs.String("name", "", "Output file base name"),
		maxSH:      fs.Int("sh-bands", 0, "Maximum exported SH bands (0-3)"),
		minOpacity: fs.Float64("min-opacity", 0, "Drop splats below this opacity"),
		selected:   fs.Bool("selected", false, "Export only selected splats"),
		strict:     fs.Bool("strict", false, "Fail on empty exports and property type conflicts"),
		splats:     fs.Int("splats", 0, "Number of generated splats"),
		seed:       fs.Int64("seed", 0, "Generator seed"),
		assetDir:   fs.String("assets", "", "Directory overriding viewer assets"),
		orbit:      fs.Bool("orbit", false, "Start viewer packages with an orbit animation"),
	}
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// isSet reports whether the named flag was given on the command line.
func (f *Flags) isSet(name string) bool {
	set := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.isSet("formats") {
		cfg.Export.Formats = splitList(*f.formats)
	}
	if f.isSet("out") {
		cfg.Output.Dir = *f.outDir
	}
	if f.isSet("name") {
		cfg.Output.Basename = *f.basename
	}
	if f.isSet("sh-bands") {
		cfg.Export.MaxSHBands = *f.maxSH
	}
	if f.isSet("min-opacity") {
		cfg.Export.MinOpacity = float32(*f.minOpacity)
	}
	if f.isSet("selected") {
		cfg.Export.Selected = *f.selected
	}
	if f.isSet("strict") {
		cfg.Export.Strict = *f.strict
	}
	if f.isSet("splats") {
		cfg.Synth.Splats = *f.splats
	}
	if f.isSet("seed") {
		cfg.Synth.Seed = *f.seed
	}
	if f.isSet("assets") {
		cfg.Viewer.AssetDir = *f.assetDir
	}
	if f.isSet("orbit") {
		cfg.Viewer.Orbit = *f.orbit
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
