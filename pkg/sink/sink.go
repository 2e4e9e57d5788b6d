// Package sink provides the sequential byte consumers exports write into.
package sink

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// ErrClosed is returned when writing to a sink after its final write.
var ErrClosed = errors.New("sink closed")

// Sink accepts byte buffers strictly in call order. Write returns once the
// buffer has been consumed; the caller may reuse p afterwards. final marks
// the last buffer of an export.
type Sink interface {
	Write(p []byte, final bool) error
}

// Buffer is an in-memory Sink.
type Buffer struct {
	buf    bytes.Buffer
	writes int
	final  bool
}

// Write implements Sink.
func (b *Buffer) Write(p []byte, final bool) error {
	if b.final {
		return ErrClosed
	}
	b.buf.Write(p)
	b.writes++
	b.final = final
	return nil
}

// Bytes returns everything written so far.
func (b *Buffer) Bytes() []byte { return b.buf.Bytes() }

// Writes returns the number of Write calls accepted.
func (b *Buffer) Writes() int { return b.writes }

// Final reports whether the final write has been received.
func (b *Buffer) Final() bool { return b.final }

// WriterSink adapts an io.Writer. The final flag is ignored.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Write implements Sink.
func (s *WriterSink) Write(p []byte, final bool) error {
	_, err := s.w.Write(p)
	return err
}

// FileSink writes to a file and closes it on the final write.
type FileSink struct {
	f    *os.File
	path string
}

// Create creates (or truncates) the file at path, making parent directories.
func Create(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	return &FileSink{f: f, path: path}, nil
}

// Path returns the file path.
func (s *FileSink) Path() string { return s.path }

// Write implements Sink.
func (s *FileSink) Write(p []byte, final bool) error {
	if s.f == nil {
		return ErrClosed
	}
	if _, err := s.f.Write(p); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if final {
		return s.Close()
	}
	return nil
}

// Close syncs and closes the file. It is safe to call more than once.
func (s *FileSink) Close() error {
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil
	return multierr.Combine(f.Sync(), f.Close())
}
