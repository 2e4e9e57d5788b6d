package serialize

import (
	"encoding/binary"
	"fmt"
	stdmath "math"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/splatpack/pkg/encoding"
	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/sink"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// column is one property of an uncompressed PLY row.
type column struct {
	name string
	typ  splat.PropertyType
	get  func(s *Splat) float32
}

// plyLayout resolves the uncompressed output columns from the common
// property set. The transform index is never written because transforms are
// baked; state is written only when requested.
func plyLayout(common []splat.PropertyDecl, opts Options) ([]column, Fields) {
	present := make(map[string]bool, len(common))
	for _, d := range common {
		present[d.Name] = true
	}
	all := func(names ...string) bool {
		for _, n := range names {
			if !present[n] {
				return false
			}
		}
		return true
	}

	fields := Fields{
		Position: all(positionNames[:]...),
		Rotation: all(rotationNames[:]...),
		Scale:    all(scaleNames[:]...),
		Color:    all(colorNames[:]...),
		Opacity:  present[splat.PropOpacity],
		State:    opts.KeepStateData && present[splat.PropState],
		Bands:    max(0, min(opts.MaxSHBands, splat.DeclBands(common))),
	}
	coeffs := sh.Coeffs(fields.Bands)

	var cols []column
	restDone := false
	for _, d := range common {
		name := d.Name
		switch {
		case name == splat.PropTransform:
		case name == splat.PropState:
			if fields.State {
				cols = append(cols, column{name, splat.TypeUchar, func(s *Splat) float32 { return float32(s.State) }})
			}
		case strings.HasPrefix(name, "f_rest_"):
			if restDone {
				continue
			}
			restDone = true
			for k := 0; k < coeffs*3; k++ {
				ch, j := k/coeffs, k%coeffs
				cols = append(cols, column{sh.RestName(k), splat.TypeFloat, func(s *Splat) float32 { return s.SH[ch][j] }})
			}
		case fields.Position && indexOf(positionNames[:], name) >= 0:
			k := indexOf(positionNames[:], name)
			cols = append(cols, column{name, splat.TypeFloat, func(s *Splat) float32 { return s.Position[k] }})
		case fields.Rotation && indexOf(rotationNames[:], name) >= 0:
			k := indexOf(rotationNames[:], name)
			cols = append(cols, column{name, splat.TypeFloat, func(s *Splat) float32 { return s.Rotation[k] }})
		case fields.Scale && indexOf(scaleNames[:], name) >= 0:
			k := indexOf(scaleNames[:], name)
			cols = append(cols, column{name, splat.TypeFloat, func(s *Splat) float32 { return s.Scale[k] }})
		case fields.Color && indexOf(colorNames[:], name) >= 0:
			k := indexOf(colorNames[:], name)
			cols = append(cols, column{name, splat.TypeFloat, func(s *Splat) float32 { return s.Color[k] }})
		case fields.Opacity && name == splat.PropOpacity:
			cols = append(cols, column{name, splat.TypeFloat, func(s *Splat) float32 { return s.Opacity }})
		default:
			j := len(fields.Extra)
			fields.Extra = append(fields.Extra, name)
			cols = append(cols, column{name, d.Type, func(s *Splat) float32 { return s.Extra[j] }})
		}
	}
	return cols, fields
}

// headerSafe splits off properties whose names cannot appear in a PLY
// header line.
func headerSafe(decls []splat.PropertyDecl) (valid []splat.PropertyDecl, invalid []string) {
	valid = decls[:0:0]
	for _, d := range decls {
		if encoding.IsHeaderToken(d.Name) {
			valid = append(valid, d)
		} else {
			invalid = append(invalid, d.Name)
		}
	}
	return valid, invalid
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// WritePLY writes the surviving splats as an uncompressed binary PLY, one
// row per splat in input order, streamed through a staging buffer.
func WritePLY(s sink.Sink, cols []splat.Collection, opts Options) error {
	log := opts.logger()

	refs := survivors(cols, opts)
	if len(refs) == 0 {
		return emptyExport(opts, FormatPLY)
	}

	common, mismatched := splat.CommonProperties(cols)
	if len(mismatched) > 0 {
		if opts.Strict {
			return fmt.Errorf("%w: %s", ErrPropertyTypeMismatch, strings.Join(mismatched, ", "))
		}
		log.Warn("dropping properties with mismatched types", zap.Strings("properties", mismatched))
	}

	common, invalid := headerSafe(common)
	if len(invalid) > 0 {
		if opts.Strict {
			return fmt.Errorf("%w: %q", ErrInvalidPropertyName, invalid)
		}
		log.Warn("dropping properties with invalid names", zap.Strings("properties", invalid))
	}

	columns, fields := plyLayout(common, opts)

	h := newHeader(opts.comment())
	h.element("vertex", len(refs))
	rowSize := 0
	for _, c := range columns {
		h.property(c.typ.String(), c.name)
		rowSize += c.typ.Size()
	}

	w := sink.NewBufferedWriter(s, opts.blockSize())
	if _, err := w.Write(h.bytes()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	reader := NewReader(fields, ReaderOptions{
		KeepWorldTransform: opts.KeepWorldTransform,
		KeepColorTint:      opts.KeepColorTint,
	})

	var rec Splat
	row := make([]byte, rowSize)
	for _, ref := range refs {
		reader.Read(ref.Collection, cols[ref.Collection], ref.Index, &rec)

		off := 0
		for _, c := range columns {
			v := c.get(&rec)
			if c.typ == splat.TypeUchar {
				row[off] = uint8(v)
				off++
				continue
			}
			binary.LittleEndian.PutUint32(row[off:], stdmath.Float32bits(v))
			off += 4
		}

		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("writing rows: %w", err)
		}
	}

	if err := w.Flush(true); err != nil {
		return fmt.Errorf("flushing rows: %w", err)
	}

	log.Debug("exported ply",
		zap.Int("splats", len(refs)),
		zap.Int("properties", len(columns)),
		zap.Int("sh_bands", fields.Bands),
		zap.Int64("bytes", w.Written()),
	)
	return nil
}
