package linerotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// segmentSet is the family of files {base, base.1, ..., base.(maxFiles-1)}
// written by one Writer. base is the active segment, base.1 the most
// recently rotated one and base.(maxFiles-1) the oldest kept.
type segmentSet struct {
	base     string
	maxFiles int
	perm     fs.FileMode

	// mocked out for testing.
	osStat     func(name string) (fs.FileInfo, error)           // os.Stat
	osRemove   func(name string) error                          // os.Remove
	osRename   func(oldpath, newpath string) error              // os.Rename
	osOpenFile func(string, int, fs.FileMode) (*os.File, error) // os.OpenFile
}

func newSegmentSet(base string, maxFiles int, perm fs.FileMode) *segmentSet {
	return &segmentSet{
		base:       base,
		maxFiles:   maxFiles,
		perm:       perm,
		osStat:     os.Stat,
		osRemove:   os.Remove,
		osRename:   os.Rename,
		osOpenFile: os.OpenFile,
	}
}

// name returns the filename of the segment at index i; 0 is the active one.
func (s *segmentSet) name(i int) string {
	if i == 0 {
		return s.base
	}
	return segmentName(s.base, i)
}

// segmentName formats the rotated segment name "base.i".
func segmentName(base string, i int) string {
	return base + "." + strconv.Itoa(i)
}

// exists reports whether name exists. Any stat failure other than
// "not exist" is returned as is.
func (s *segmentSet) exists(name string) (bool, error) {
	_, err := s.osStat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// shift evicts the oldest segment and moves every other one up by one
// index, the active segment becoming base.1. It renames from the
// highest index down so that no rename ever lands on a file that has
// not been moved away yet.
//
//	e.g. base "log", maxFiles 4
//	- remove log.3 | log.2 > log.3 | log.1 > log.2 | log > log.1
//
// Any failure aborts the shift and may leave the set partially shifted.
func (s *segmentSet) shift() error {
	if s.maxFiles > 1 {
		oldest := s.name(s.maxFiles - 1)
		ok, err := s.exists(oldest)
		if err != nil {
			return fmt.Errorf("failed to stat old log file %s: %w", oldest, err)
		}
		if ok {
			if err := s.osRemove(oldest); err != nil {
				return fmt.Errorf("failed to remove old log file %s: %w", oldest, err)
			}
		}
	}

	for i := s.maxFiles - 1; i > 0; i-- {
		src, dst := s.name(i-1), s.name(i)
		ok, err := s.exists(src)
		if err != nil {
			return fmt.Errorf("failed to stat log file %s: %w", src, err)
		}
		if !ok {
			continue
		}
		if err := s.osRename(src, dst); err != nil {
			return fmt.Errorf("failed to rename log file %s -> %s: %w", src, dst, err)
		}
	}
	return nil
}

// create opens the active segment fresh for writing, truncating it if
// something recreated it in the meantime.
func (s *segmentSet) create() (*os.File, error) {
	if err := mkdirFor(s.base); err != nil {
		return nil, err
	}
	f, err := s.osOpenFile(s.base, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, s.perm)
	if err != nil {
		return nil, fmt.Errorf("failed to open new log file for writing %s: %w", s.base, err)
	}
	return f, nil
}

// openAppend opens the active segment for reading and appending,
// creating it if absent.
func (s *segmentSet) openAppend() (*os.File, error) {
	if err := mkdirFor(s.base); err != nil {
		return nil, err
	}
	f, err := s.osOpenFile(s.base, os.O_CREATE|os.O_RDWR|os.O_APPEND, s.perm)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file for append %s: %w", s.base, err)
	}
	return f, nil
}

// mkdirFor makes sure the parent directory of filename exists, e.g.
// ./foo/bar/baz/hello.log needs ./foo/bar/baz.
func mkdirFor(filename string) error {
	dirname := filepath.Dir(filename)
	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create directory for log file: %w", err)
	}
	return nil
}
