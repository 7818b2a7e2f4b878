// Package config holds the settings of a linerotate run, loaded from
// defaults, an optional YAML file, LINEROTATE_* variables and flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gounknown/linerotate"
)

// MaxFilenameLength bounds the longest derived segment name, "B.(N-1)".
const MaxFilenameLength = 1024

var (
	ErrInvalidFilename = errors.New("invalid filename")
	ErrFilenameTooLong = errors.New("filename too long")
	ErrInvalidMaxLines = errors.New("invalid maximum number of lines")
	ErrInvalidMaxFiles = errors.New("invalid maximum number of files")
)

// Config is the configuration of one run. It is built once at startup
// and only read afterwards.
type Config struct {
	Filename string `yaml:"file"`     // base log filename
	MaxLines int    `yaml:"lines"`    // max lines per file
	MaxFiles int    `yaml:"files"`    // max files to maintain
	Append   bool   `yaml:"append"`   // resume the existing log
	Datetime bool   `yaml:"datetime"` // local datetime stamp per line
	Epoch    bool   `yaml:"epoch"`    // monotonic stamp per line
	Input    string `yaml:"input"`    // read from this file instead of stdin
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Filename: linerotate.DefaultFilename,
		MaxLines: linerotate.DefaultMaxLines,
		MaxFiles: linerotate.DefaultMaxFiles,
	}
}

// Load reads configuration from a YAML file on top of the defaults.
// Unknown keys are rejected. If path is empty or the file holds no
// document, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cfg before anything touches the disk.
func (c Config) Validate() error {
	if c.Filename == "" {
		return ErrInvalidFilename
	}
	if c.MaxLines <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxLines, c.MaxLines)
	}
	if c.MaxFiles <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxFiles, c.MaxFiles)
	}
	if n := len(c.Filename) + 1 + len(strconv.Itoa(c.MaxFiles-1)); n >= MaxFilenameLength {
		return fmt.Errorf("%w: %d bytes", ErrFilenameTooLong, n)
	}
	return nil
}

// Options converts cfg to linerotate options.
func (c Config) Options() []linerotate.Option {
	return []linerotate.Option{
		linerotate.WithMaxLines(c.MaxLines),
		linerotate.WithMaxFiles(c.MaxFiles),
		linerotate.WithAppend(c.Append),
		linerotate.WithDatetimeStamp(c.Datetime),
		linerotate.WithEpochStamp(c.Epoch),
	}
}
