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

var chunkProperties = [ChunkBoundsLen]string{
	"min_x", "min_y", "min_z",
	"max_x", "max_y", "max_z",
	"min_scale_x", "min_scale_y", "min_scale_z",
	"max_scale_x", "max_scale_y", "max_scale_z",
	"min_r", "min_g", "min_b",
	"max_r", "max_g", "max_b",
}

var vertexProperties = [4]string{
	"packed_position",
	"packed_rotation",
	"packed_scale",
	"packed_color",
}

const (
	chunkBytes  = ChunkBoundsLen * 4
	vertexBytes = len(vertexProperties) * 4
)

// compressedLayout holds the byte offsets of the compressed PLY sections.
type compressedLayout struct {
	splats int
	chunks int
	coeffs int

	chunkOffset  int
	vertexOffset int
	shOffset     int
	size         int
}

func newCompressedLayout(headerLen, splats, coeffs int) compressedLayout {
	l := compressedLayout{
		splats: splats,
		chunks: (splats + ChunkSize - 1) / ChunkSize,
		coeffs: coeffs,
	}
	l.chunkOffset = headerLen
	l.vertexOffset = l.chunkOffset + l.chunks*chunkBytes
	l.shOffset = l.vertexOffset + splats*vertexBytes
	l.size = l.shOffset + splats*coeffs*3
	return l
}

func compressedHeader(comment string, splats, bands int) []byte {
	h := newHeader(comment)
	h.element("chunk", (splats+ChunkSize-1)/ChunkSize)
	for _, name := range chunkProperties {
		h.property("float", name)
	}
	h.element("vertex", splats)
	for _, name := range vertexProperties {
		h.property("uint", name)
	}
	if bands > 0 {
		h.element("sh", splats)
		for _, name := range sh.RestNames(bands) {
			h.property("uchar", name)
		}
	}
	return h.bytes()
}

// WriteCompressedPLY writes the surviving splats as a chunk-quantized PLY.
// Splats are reordered by Morton code, quantized in chunks of ChunkSize and
// assembled in one buffer handed to the sink in a single final write.
func WriteCompressedPLY(s sink.Sink, cols []splat.Collection, opts Options) error {
	log := opts.logger()

	refs := survivors(cols, opts)
	if len(refs) == 0 {
		return emptyExport(opts, FormatCompressedPLY)
	}

	bands := max(0, min(opts.MaxSHBands, splat.MaxBands(cols)))
	coeffs := sh.Coeffs(bands)

	SortMorton(refs, cols)

	header := compressedHeader(opts.comment(), len(refs), bands)
	layout := newCompressedLayout(len(header), len(refs), coeffs)

	buf := make([]byte, layout.size)
	copy(buf, header)

	reader := NewReader(AllFields(bands), ReaderOptions{})

	var (
		rec   Splat
		chunk Chunk
	)
	for start := 0; start < len(refs); start += ChunkSize {
		end := min(start+ChunkSize, len(refs))

		chunk.Reset()
		for k := start; k < end; k++ {
			ref := refs[k]
			reader.Read(ref.Collection, cols[ref.Collection], ref.Index, &rec)
			chunk.Add(&rec)

			if coeffs > 0 {
				off := layout.shOffset + k*coeffs*3
				for ch := 0; ch < 3; ch++ {
					for j := 0; j < coeffs; j++ {
						buf[off+ch*coeffs+j] = QuantizeSH(rec.SH[ch][j])
					}
				}
			}
		}
		chunk.Pack()

		off := layout.chunkOffset + (start/ChunkSize)*chunkBytes
		for i, v := range chunk.Bounds {
			binary.LittleEndian.PutUint32(buf[off+i*4:], stdmath.Float32bits(v))
		}

		for j := 0; j < chunk.Len(); j++ {
			off := layout.vertexOffset + (start+j)*vertexBytes
			binary.LittleEndian.PutUint32(buf[off:], chunk.Position[j])
			binary.LittleEndian.PutUint32(buf[off+4:], chunk.Rotation[j])
			binary.LittleEndian.PutUint32(buf[off+8:], chunk.Scale[j])
			binary.LittleEndian.PutUint32(buf[off+12:], chunk.Color[j])
		}
	}

	if err := s.Write(buf, true); err != nil {
		return fmt.Errorf("writing compressed ply: %w", err)
	}

	log.Debug("exported compressed ply",
		zap.Int("splats", len(refs)),
		zap.Int("chunks", layout.chunks),
		zap.Int("sh_bands", bands),
		zap.Int("bytes", len(buf)),
	)
	return nil
}
