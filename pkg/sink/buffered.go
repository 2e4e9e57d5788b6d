package sink

// DefaultBlockSize is the staging buffer size used by encoders.
const DefaultBlockSize = 1 << 20

// BufferedWriter stages bytes in a bounded buffer and forwards them to a
// Sink in fixed-size blocks.
type BufferedWriter struct {
	sink    Sink
	buf     []byte
	size    int
	written int64
}

// NewBufferedWriter creates a writer flushing blocks of size bytes.
func NewBufferedWriter(s Sink, size int) *BufferedWriter {
	if size <= 0 {
		size = DefaultBlockSize
	}
	return &BufferedWriter{
		sink: s,
		buf:  make([]byte, 0, size),
		size: size,
	}
}

// Write implements io.Writer. Full blocks are forwarded as they fill.
func (w *BufferedWriter) Write(p []byte) (int, error) {
	n := 0
	for len(p) > 0 {
		room := w.size - len(w.buf)
		take := min(room, len(p))
		w.buf = append(w.buf, p[:take]...)
		p = p[take:]
		n += take

		if len(w.buf) == w.size {
			if err := w.emit(false); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Flush forwards any staged bytes. With final set the sink receives the
// final flag even when nothing is staged.
func (w *BufferedWriter) Flush(final bool) error {
	if len(w.buf) == 0 && !final {
		return nil
	}
	return w.emit(final)
}

// Written returns the number of bytes forwarded to the sink.
func (w *BufferedWriter) Written() int64 {
	return w.written
}

func (w *BufferedWriter) emit(final bool) error {
	if err := w.sink.Write(w.buf, final); err != nil {
		return err
	}
	w.written += int64(len(w.buf))
	w.buf = w.buf[:0]
	return nil
}
