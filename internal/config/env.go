package config

import (
	"os"
	"strconv"
)

// FromEnv overlays LINEROTATE_* environment variables onto cfg.
// Values that do not parse are ignored.
func FromEnv(cfg *Config) {
	if v := os.Getenv("LINEROTATE_FILE"); v != "" {
		cfg.Filename = v
	}
	if v := os.Getenv("LINEROTATE_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxLines = n
		}
	}
	if v := os.Getenv("LINEROTATE_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFiles = n
		}
	}
	if v := os.Getenv("LINEROTATE_APPEND"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Append = b
		}
	}
	if v := os.Getenv("LINEROTATE_DATETIME"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Datetime = b
		}
	}
	if v := os.Getenv("LINEROTATE_EPOCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Epoch = b
		}
	}
	if v := os.Getenv("LINEROTATE_INPUT"); v != "" {
		cfg.Input = v
	}
}
