// Package serialize encodes splat collections into the uncompressed PLY,
// compressed PLY and .splat binary formats.
package serialize

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/sink"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// Version is written into the generator comment of PLY headers.
const Version = "1.4.0"

// Export errors.
var (
	ErrNoSplats             = errors.New("no splats to export")
	ErrPropertyTypeMismatch = errors.New("property type differs between collections")
	ErrUnknownFormat        = errors.New("unknown export format")
	ErrInvalidPropertyName  = errors.New("property name cannot be written to a PLY header")
)

// Options configures one export call.
type Options struct {
	// MaxSHBands caps the exported spherical-harmonic bands.
	MaxSHBands int
	// Selected exports only selected splats.
	Selected bool
	// MinOpacity drops splats whose activated opacity is below it.
	MinOpacity float32
	// RemoveInvalid drops splats holding NaN or infinite values.
	RemoveInvalid bool

	// Uncompressed PLY only.
	KeepStateData      bool
	KeepWorldTransform bool
	KeepColorTint      bool

	// Strict reports empty exports and type-mismatched properties as
	// errors instead of skipping them.
	Strict bool

	// Comment replaces the generator comment in PLY headers.
	Comment string
	// BlockSize is the staging buffer size for streamed encoders.
	BlockSize int
	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the default export configuration.
func DefaultOptions() Options {
	return Options{
		MaxSHBands: sh.MaxBands,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) filter() *splat.Filter {
	return splat.NewFilter(splat.FilterOptions{
		SelectedOnly:  o.Selected,
		MinOpacity:    o.MinOpacity,
		RemoveInvalid: o.RemoveInvalid,
	})
}

func (o Options) comment() string {
	if o.Comment != "" {
		return o.Comment
	}
	return "Generated by splatpack " + Version
}

func (o Options) blockSize() int {
	if o.BlockSize > 0 {
		return o.BlockSize
	}
	return sink.DefaultBlockSize
}

// Format identifies an encoding.
type Format int

// Supported formats.
const (
	FormatPLY Format = iota
	FormatCompressedPLY
	FormatSplat
)

var formatNames = map[Format]string{
	FormatPLY:           "ply",
	FormatCompressedPLY: "compressed",
	FormatSplat:         "splat",
}

// String returns the format name accepted by ParseFormat.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the conventional file suffix.
func (f Format) Extension() string {
	switch f {
	case FormatCompressedPLY:
		return ".compressed.ply"
	case FormatSplat:
		return ".splat"
	default:
		return ".ply"
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Export writes cols to s in the given format.
func Export(s sink.Sink, f Format, cols []splat.Collection, opts Options) error {
	switch f {
	case FormatPLY:
		return WritePLY(s, cols, opts)
	case FormatCompressedPLY:
		return WriteCompressedPLY(s, cols, opts)
	case FormatSplat:
		return WriteSplat(s, cols, opts)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}
