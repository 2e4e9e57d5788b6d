package serialize

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/splatpack/pkg/sh"
	"github.com/Faultbox/splatpack/pkg/sink"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// SplatRecordSize is the size of one .splat record.
const SplatRecordSize = 32

func unorm8(v float64) uint8 {
	return uint8(max(0, min(255, stdmath.Round(v))))
}

// encodeSplatRecord fills a 32-byte .splat record: position, linear scale,
// RGBA colour and the normalised rotation (w, x, y, z) as bytes.
func encodeSplatRecord(dst []byte, s *Splat) {
	for k := 0; k < 3; k++ {
		binary.LittleEndian.PutUint32(dst[k*4:], stdmath.Float32bits(s.Position[k]))
		scale := float32(stdmath.Exp(float64(s.Scale[k])))
		binary.LittleEndian.PutUint32(dst[12+k*4:], stdmath.Float32bits(scale))
		dst[24+k] = unorm8(float64(sh.DCToLinear(s.Color[k])) * 255)
	}
	dst[27] = unorm8(float64(splat.Sigmoid(s.Opacity)) * 255)

	q := s.Quat().Normalize()
	for k, v := range [4]float32{q.W, q.X, q.Y, q.Z} {
		dst[28+k] = unorm8(float64(v)*128 + 128)
	}
}

// WriteSplat writes the surviving splats as fixed 32-byte .splat records
// in input order.
func WriteSplat(s sink.Sink, cols []splat.Collection, opts Options) error {
	log := opts.logger()

	refs := survivors(cols, opts)
	if len(refs) == 0 {
		return emptyExport(opts, FormatSplat)
	}

	reader := NewReader(AllFields(0), ReaderOptions{})
	w := sink.NewBufferedWriter(s, opts.blockSize())

	var (
		rec    Splat
		record [SplatRecordSize]byte
	)
	for _, ref := range refs {
		reader.Read(ref.Collection, cols[ref.Collection], ref.Index, &rec)
		encodeSplatRecord(record[:], &rec)
		if _, err := w.Write(record[:]); err != nil {
			return fmt.Errorf("writing splat records: %w", err)
		}
	}

	if err := w.Flush(true); err != nil {
		return fmt.Errorf("flushing splat records: %w", err)
	}

	log.Debug("exported splat",
		zap.Int("splats", len(refs)),
		zap.Int64("bytes", w.Written()),
	)
	return nil
}
