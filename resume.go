package linerotate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// resume opens the existing active segment for appending and recovers
// the number of completed lines it holds. The file may come from an
// unrelated or crashed run, so a dangling last line gets a terminator
// appended and is counted, leaving the next write on a clean line
// boundary.
func (w *Writer) resume() error {
	f, err := w.segments.openAppend()
	if err != nil {
		return err
	}

	lines, last, err := countLines(f)
	if err != nil {
		closeQuietly(f)
		return fmt.Errorf("failed to read log file %s: %w", w.segments.base, err)
	}

	w.file = f
	w.buf.Reset(f)
	w.lines = lines
	w.state = atLineStart

	if last < 0 || byte(last) == lineTerminator {
		return nil
	}

	// O_APPEND puts this at the end regardless of the read offset.
	if err := w.buf.WriteByte(lineTerminator); err != nil {
		return fmt.Errorf("failed to write newline character: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to write newline character: %w", err)
	}
	w.lines++
	w.logger.Debug("terminated dangling line of resumed log file", fieldFile(w.segments.base))
	return nil
}

// countLines reads r to the end and returns the number of line
// terminators seen and the last byte read, or -1 for an empty input.
func countLines(r io.Reader) (lines int, last int, err error) {
	last = -1
	buf := make([]byte, copyBufSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			lines += bytes.Count(buf[:n], []byte{lineTerminator})
			last = int(buf[n-1])
		}
		if errors.Is(err, io.EOF) {
			return lines, last, nil
		}
		if err != nil {
			return lines, last, err
		}
	}
}

func closeQuietly(f *os.File) {
	_ = f.Close()
}
