package serialize

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/splatpack/pkg/encoding"
	"github.com/Faultbox/splatpack/pkg/splat"
)

// CountSplats returns how many splats of cols pass the export filter.
func CountSplats(cols []splat.Collection, opts Options) int {
	f := opts.filter()
	n := 0
	for _, c := range cols {
		n += f.Count(c)
	}
	return n
}

// survivors lists the splats passing the filter in input order.
func survivors(cols []splat.Collection, opts Options) []Ref {
	f := opts.filter()
	var refs []Ref
	for ci, c := range cols {
		f.Bind(c)
		for i := 0; i < c.NumSplats(); i++ {
			if f.Test(i) {
				refs = append(refs, Ref{Collection: ci, Index: i})
			}
		}
	}
	return refs
}

// emptyExport reports an export with no surviving splats.
func emptyExport(opts Options, format Format) error {
	if opts.Strict {
		return fmt.Errorf("%s: %w", format, ErrNoSplats)
	}
	opts.logger().Warn("nothing to export", zap.Stringer("format", format))
	return nil
}

// header builds an ASCII PLY header.
type header struct {
	b strings.Builder
}

func newHeader(comment string) *header {
	h := &header{}
	h.line("ply")
	h.line("format binary_little_endian 1.0")
	if text := encoding.HeaderText(comment); text != "" {
		h.line("comment " + text)
	}
	return h
}

func (h *header) line(s string) {
	h.b.WriteString(s)
	h.b.WriteByte('\n')
}

func (h *header) element(name string, count int) {
	h.line(fmt.Sprintf("element %s %d", name, count))
}

func (h *header) property(typ, name string) {
	h.line("property " + typ + " " + name)
}

func (h *header) bytes() []byte {
	h.line("end_header")
	return []byte(h.b.String())
}
