package linerotate

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_countLines(t *testing.T) {
	tests := []struct {
		input     string
		wantLines int
		wantLast  int
	}{
		{"", 0, -1},
		{"x", 0, 'x'},
		{"\n", 1, '\n'},
		{"x\ny", 1, 'y'},
		{"x\ny\n", 2, '\n'},
		{strings.Repeat("line\n", 10000), 10000, '\n'},
	}
	for _, tt := range tests {
		lines, last, err := countLines(iotest.HalfReader(strings.NewReader(tt.input)))
		require.NoError(t, err)
		assert.Equal(t, tt.wantLines, lines, "%.20q", tt.input)
		assert.Equal(t, tt.wantLast, last, "%.20q", tt.input)
	}
}

func Test_Resume(t *testing.T) {
	tests := []struct {
		name        string
		existing    *string
		wantLines   int
		wantContent string
	}{
		{name: "absent", existing: nil, wantLines: 0, wantContent: ""},
		{name: "empty", existing: ptr(""), wantLines: 0, wantContent: ""},
		{name: "terminated", existing: ptr("x\ny\n"), wantLines: 2, wantContent: "x\ny\n"},
		{name: "unterminated", existing: ptr("x\ny"), wantLines: 2, wantContent: "x\ny\n"},
		{name: "blank lines", existing: ptr("\n\n\n"), wantLines: 3, wantContent: "\n\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testDir(t)
			name := filepath.Join(dir, "log.log")
			if tt.existing != nil {
				writeFile(t, name, *tt.existing)
			}

			w, err := New(name, WithAppend(true))
			require.NoError(t, err)
			defer w.Close()

			assert.Equal(t, tt.wantLines, w.Lines())
			assert.Equal(t, tt.wantContent, readFile(t, name))
			assert.Zero(t, w.Metrics().Rotations, "append mode does not rotate on open")
		})
	}
}

func Test_Resume_Idempotent(t *testing.T) {
	dir := testDir(t)
	name := filepath.Join(dir, "log.log")
	writeFile(t, name, "x\ny")

	for i := 0; i < 3; i++ {
		w, err := New(name, WithAppend(true))
		require.NoError(t, err)
		assert.Equal(t, 2, w.Lines())
		require.NoError(t, w.Close())
	}
	assert.Equal(t, "x\ny\n", readFile(t, name))
}

func Test_Resume_ContinuesCounting(t *testing.T) {
	dir := testDir(t)
	name := filepath.Join(dir, "log.log")
	writeFile(t, name, "a\nb")
	writeFile(t, name+".1", "old\n")

	w, err := New(name, WithAppend(true), WithMaxLines(3), WithMaxFiles(3))
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("c\nd\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "d\n", readFile(t, name))
	assert.Equal(t, "a\nb\nc\n", readFile(t, name+".1"))
	assert.Equal(t, "old\n", readFile(t, name+".2"))
}

func Test_Resume_OpenFailure(t *testing.T) {
	dir := testDir(t)
	// a directory can not be opened for writing
	name := filepath.Join(dir, "log.log")
	require.NoError(t, os.MkdirAll(name, 0755))

	_, err := New(name, WithAppend(true))
	var pathErr *fs.PathError
	assert.True(t, errors.As(err, &pathErr), "got %v", err)
}

func Test_Resume_TerminatorFailure(t *testing.T) {
	dir := testDir(t)
	name := filepath.Join(dir, "log.log")
	writeFile(t, name, "x\ny")

	w, err := newWriter(name, WithAppend(true))
	require.NoError(t, err)

	// a read-only handle lets the count succeed and the newline fail
	var opened *os.File
	w.segments.osOpenFile = func(name string, _ int, _ fs.FileMode) (*os.File, error) {
		f, err := os.Open(name)
		opened = f
		return f, err
	}

	err = w.open()
	assert.ErrorContains(t, err, "failed to write newline character")
	assert.Nil(t, w.file, "no active file after a failed open")
	require.NotNil(t, opened)
	assert.ErrorIs(t, opened.Close(), os.ErrClosed, "the handle was closed")
	assert.Equal(t, "x\ny", readFile(t, name))
}

func ptr(s string) *string { return &s }
