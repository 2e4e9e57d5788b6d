// Package config handles splattool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/splatpack/internal/synth"
	"github.com/Faultbox/splatpack/pkg/math"
	"github.com/Faultbox/splatpack/pkg/serialize"
	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/splat"
	"github.com/Faultbox/splatpack/pkg/viewer"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all splattool settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Synth   SynthConfig   `yaml:"synth"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds encoder settings.
type ExportConfig struct {
	MaxSHBands    int     `yaml:"max_sh_bands"`
	Selected      bool    `yaml:"selected"`
	MinOpacity    float32 `yaml:"min_opacity"`
	RemoveInvalid bool    `yaml:"remove_invalid"`

	// Uncompressed PLY only.
	KeepStateData      bool `yaml:"keep_state_data"`
	KeepWorldTransform bool `yaml:"keep_world_transform"`
	KeepColorTint      bool `yaml:"keep_color_tint"`

	Strict    bool   `yaml:"strict"`
	Comment   string `yaml:"comment"`
	BlockSize int    `yaml:"block_size"`

	// Formats lists the outputs written per run: ply, compressed, splat,
	// html or zip.
	Formats []string `yaml:"formats"`
}

// ViewerConfig holds viewer package settings.
type ViewerConfig struct {
	AssetDir string          `yaml:"asset_dir"` // Overrides for the built-in template
	Orbit    bool            `yaml:"orbit"`     // Start with a generated orbit track
	Settings viewer.Settings `yaml:"settings"`
}

// SynthConfig describes the generated test cloud.
type SynthConfig struct {
	Splats      int     `yaml:"splats"`
	Seed        int64   `yaml:"seed"`
	Bands       int     `yaml:"bands"`
	Radius      float32 `yaml:"radius"`
	Transforms  int     `yaml:"transforms"`
	DeletedPct  float32 `yaml:"deleted_pct"`
	SelectedPct float32 `yaml:"selected_pct"`

	Adjust splat.ColorAdjustment `yaml:"adjust"`
}

// OutputConfig holds output file naming.
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	Basename string `yaml:"basename"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			MaxSHBands: sh.MaxBands,
			Formats:    []string{"ply", "compressed"},
		},
		Viewer: ViewerConfig{
			Settings: viewer.DefaultSettings(),
		},
		Synth: SynthConfig{
			Splats:     10000,
			Seed:       1,
			Bands:      3,
			Radius:     1,
			Transforms: 1,
			Adjust:     splat.DefaultAdjustment(),
		},
		Output: OutputConfig{
			Dir:      "out",
			Basename: "scene",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Options converts the export section to encoder options.
func (c *Config) Options(log *zap.Logger) serialize.Options {
	e := c.Export
	return serialize.Options{
		MaxSHBands:         e.MaxSHBands,
		Selected:           e.Selected,
		MinOpacity:         e.MinOpacity,
		RemoveInvalid:      e.RemoveInvalid,
		KeepStateData:      e.KeepStateData,
		KeepWorldTransform: e.KeepWorldTransform,
		KeepColorTint:      e.KeepColorTint,
		Strict:             e.Strict,
		Comment:            e.Comment,
		BlockSize:          e.BlockSize,
		Logger:             log,
	}
}

// Params converts the synth section to generator parameters.
func (s SynthConfig) Params() synth.Params {
	return synth.Params{
		Splats:      s.Splats,
		Seed:        s.Seed,
		Bands:       s.Bands,
		Radius:      s.Radius,
		Transforms:  s.Transforms,
		DeletedPct:  s.DeletedPct,
		SelectedPct: s.SelectedPct,
		World:       math.Identity(),
		Adjust:      s.Adjust,
	}
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	var err error

	if c.Export.MaxSHBands < 0 || c.Export.MaxSHBands > sh.MaxBands {
		err = multierr.Append(err, fmt.Errorf("export.max_sh_bands %d out of range [0, %d]", c.Export.MaxSHBands, sh.MaxBands))
	}
	if c.Export.MinOpacity < 0 || c.Export.MinOpacity > 1 {
		err = multierr.Append(err, fmt.Errorf("export.min_opacity %v out of range [0, 1]", c.Export.MinOpacity))
	}
	if len(c.Export.Formats) == 0 {
		err = multierr.Append(err, errors.New("export.formats is empty"))
	}
	for _, name := range c.Export.Formats {
		if _, ferr := ParseOutput(name); ferr != nil {
			err = multierr.Append(err, ferr)
		}
	}

	if verr := c.Viewer.Settings.Validate(); verr != nil {
		err = multierr.Append(err, verr)
	}

	if c.Synth.Splats < 0 {
		err = multierr.Append(err, fmt.Errorf("synth.splats %d is negative", c.Synth.Splats))
	}
	if c.Synth.Bands < 0 || c.Synth.Bands > sh.MaxBands {
		err = multierr.Append(err, fmt.Errorf("synth.bands %d out of range [0, %d]", c.Synth.Bands, sh.MaxBands))
	}
	if c.Synth.DeletedPct < 0 || c.Synth.SelectedPct < 0 || c.Synth.DeletedPct+c.Synth.SelectedPct > 100 {
		err = multierr.Append(err, errors.New("synth percentages must be non-negative and sum to at most 100"))
	}

	if c.Output.Basename == "" {
		err = multierr.Append(err, errors.New("output.basename is empty"))
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Output is one resolved export target: an encoder format or a viewer
// package type.
type Output struct {
	Name    string
	Format  serialize.Format
	Package viewer.PackageType
	// IsPackage selects Package over Format.
	IsPackage bool
}

// Extension returns the file suffix of the output.
func (o Output) Extension() string {
	if o.IsPackage {
		return o.Package.Extension()
	}
	return o.Format.Extension()
}

// ParseOutput resolves an output name.
func ParseOutput(name string) (Output, error) {
	if f, err := serialize.ParseFormat(name); err == nil {
		return Output{Name: f.String(), Format: f}, nil
	}
	if p, err := viewer.ParsePackageType(name); err == nil {
		return Output{Name: p.String(), Package: p, IsPackage: true}, nil
	}
	return Output{}, fmt.Errorf("%w: %q", serialize.ErrUnknownFormat, name)
}

// Outputs resolves every configured format.
func (c *Config) Outputs() ([]Output, error) {
	outputs := make([]Output, 0, len(c.Export.Formats))
	for _, name := range c.Export.Formats {
		o, err := ParseOutput(name)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, o)
	}
	return outputs, nil
}
