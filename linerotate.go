// Package linerotate writes a byte stream to a bounded set of rotating
// log files, capped by the number of lines each file holds.
//
// Given a base filename B and a maximum file count N the set on disk is
// B (the file being written), B.1 (the most recently rotated) up to
// B.(N-1) (the oldest). When B holds the configured number of lines and
// another line starts, B.(N-1) is removed, every other file moves up by
// one index and a fresh B is opened.
package linerotate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ensure we always implement io.WriteCloser and io.ReaderFrom
var (
	_ io.WriteCloser = (*Writer)(nil)
	_ io.ReaderFrom  = (*Writer)(nil)
)

const copyBufSize = 32 * 1024

var (
	// ErrClosed is returned when writing to a Writer after Close, or
	// after a failed rotation left it without an active file.
	ErrClosed = errors.New("linerotate: no active log file")

	// Errors returned by New for invalid arguments.
	ErrEmptyFilename   = errors.New("linerotate: empty filename")
	ErrInvalidMaxLines = errors.New("linerotate: invalid maximum number of lines")
	ErrInvalidMaxFiles = errors.New("linerotate: invalid maximum number of files")
)

// Writer is an io.WriteCloser that writes to a line-capped, rotating set
// of log files. It is not safe for concurrent use: a log set is meant to
// be fed by a single stream.
type Writer struct {
	// Read-only fields after New.
	opts     *Options
	segments *segmentSet
	stamps   []stampFunc
	logger   *zap.Logger
	metrics  *writerMetrics

	file  *os.File      // active segment, nil when closed
	buf   *bufio.Writer // buffers file, flushed after every line
	state lineState     // whether the next byte starts a line
	lines int           // completed lines in the active segment
}

// New creates a Writer for the base filename. Unless WithAppend is
// given, any existing file set is rotated once so that writing starts
// on an empty file. With WithAppend, the existing file is reopened and
// its lines are counted towards the limit.
func New(filename string, options ...Option) (*Writer, error) {
	w, err := newWriter(filename, options...)
	if err != nil {
		return nil, err
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// newWriter validates the options and builds a Writer without touching
// the disk.
func newWriter(filename string, options ...Option) (*Writer, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	opts := parseOptions(options...)
	if opts.maxLines <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxLines, opts.maxLines)
	}
	if opts.maxFiles <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxFiles, opts.maxFiles)
	}

	stamps, err := newStamps(opts)
	if err != nil {
		return nil, err
	}
	metrics := newWriterMetrics(filename)
	if err := metrics.register(opts.registerer); err != nil {
		return nil, err
	}

	return &Writer{
		opts:     opts,
		segments: newSegmentSet(filename, opts.maxFiles, opts.perm),
		stamps:   stamps,
		logger:   opts.logger,
		metrics:  metrics,
		buf:      bufio.NewWriterSize(nil, copyBufSize),
	}, nil
}

// open prepares the active segment, either by resuming it or by an
// initial rotation. On failure no file is left open.
func (w *Writer) open() (err error) {
	defer func() {
		if err != nil && w.file != nil {
			closeQuietly(w.file)
			w.file = nil
		}
	}()
	if w.opts.append {
		return w.resume()
	}
	if err := w.rotate(); err != nil {
		return fmt.Errorf("failed to initially rotate log: %w", err)
	}
	return nil
}

// Write implements io.Writer. Before the first byte of every line it
// rotates the file set if the active file is full, and writes the
// configured stamps. The active file is flushed after every completed
// line; a failed flush is logged and writing goes on.
//
// Write returns a non-nil error when n != len(p). Errors are not
// retried; the caller is expected to give up.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.file == nil {
		return 0, ErrClosed
	}
	for len(p) > 0 {
		if w.state == atLineStart {
			if err := w.startLine(); err != nil {
				return n, err
			}
		}

		chunk := p
		if i := bytes.IndexByte(p, lineTerminator); i >= 0 {
			chunk = p[:i+1]
		}
		m, err := w.buf.Write(chunk)
		n += m
		w.metrics.bytes.Add(float64(m))
		if err != nil {
			return n, fmt.Errorf("failed to write to log file %s: %w", w.segments.base, err)
		}

		var completed bool
		w.state, completed = w.state.next(chunk[len(chunk)-1])
		if completed {
			w.endLine()
		}
		p = p[len(chunk):]
	}
	return n, nil
}

// startLine runs at the start of every line, before any of it is written.
func (w *Writer) startLine() error {
	if w.lines >= w.opts.maxLines {
		if err := w.rotate(); err != nil {
			return fmt.Errorf("failed to rotate log: %w", err)
		}
	}
	for _, stamp := range w.stamps {
		s := stamp()
		if _, err := w.buf.WriteString(s); err != nil {
			return fmt.Errorf("failed to write stamp %q: %w", s, err)
		}
	}
	return nil
}

// endLine runs after a line terminator was buffered. A failed flush
// drops whatever is still buffered, so the next line starts clean.
func (w *Writer) endLine() {
	w.lines++
	w.metrics.lines.Inc()
	if err := w.buf.Flush(); err != nil {
		w.warn("failed to flush output after newline", err, zap.Int("dropped", w.buf.Buffered()))
		w.buf.Reset(w.file)
	}
}

// ReadFrom implements io.ReaderFrom. It copies r into the log until
// io.EOF, which is not reported as an error. A line left unterminated
// at the end of r stays unterminated.
func (w *Writer) ReadFrom(r io.Reader) (n int64, err error) {
	buf := make([]byte, copyBufSize)
	for {
		nr, rerr := r.Read(buf)
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			n += int64(nw)
			if werr != nil {
				return n, werr
			}
		}
		if errors.Is(rerr, io.EOF) {
			return n, nil
		}
		if rerr != nil {
			return n, fmt.Errorf("failed to read input: %w", rerr)
		}
	}
}

// Rotate forcefully rotates the log files. It closes the active file,
// shifts the set by one and opens a new, empty active file. This is a
// helper for applications that want to rotate outside of the line
// limit, such as in response to SIGHUP.
//
// A partial line being written continues in the new file.
func (w *Writer) Rotate() error {
	if w.file == nil {
		return ErrClosed
	}
	return w.rotate()
}

// rotate closes the active file if open, shifts the file set and opens
// a fresh active file. A failure to close is only a warning.
func (w *Writer) rotate() error {
	if w.file != nil {
		if err := w.closeFile(); err != nil {
			w.warn("failed to close log file while rotating", err)
		}
	}
	if err := w.segments.shift(); err != nil {
		return err
	}
	f, err := w.segments.create()
	if err != nil {
		return err
	}
	w.file = f
	w.buf.Reset(f)
	w.lines = 0
	w.metrics.rotations.Inc()
	w.logger.Debug("rotated log", fieldFile(w.segments.base), zap.Int("max_files", w.segments.maxFiles))
	return nil
}

// Close implements io.Closer. It flushes and closes the active file.
// Close on a closed Writer is a no-op.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	return w.closeFile()
}

// closeFile flushes and closes the active file.
func (w *Writer) closeFile() error {
	err := w.buf.Flush()
	err = multierr.Append(err, w.file.Close())
	w.file = nil
	return err
}

func (w *Writer) warn(msg string, err error, fields ...zap.Field) {
	w.metrics.warnings.Inc()
	w.logger.Warn(msg, append([]zap.Field{fieldFile(w.segments.base), zap.Error(err)}, fields...)...)
}

// Filename returns the name of the active log file.
func (w *Writer) Filename() string {
	return w.segments.base
}

// Lines returns the number of completed lines in the active log file.
func (w *Writer) Lines() int {
	return w.lines
}

// Metrics returns the counters of this Writer.
func (w *Writer) Metrics() Metrics {
	return w.metrics.snapshot()
}
