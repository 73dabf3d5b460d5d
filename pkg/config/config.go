// Package config provides the runtime configuration for Tessera.
// It defines a single Settings structure used by the compressed matrix
// kernels and the CLI, with validation and a YAML loader.
package config

import (
	"runtime"

	"github.com/ajitpratap0/tessera/pkg/errors"
)

// Settings is the runtime configuration for the compression kernels.
type Settings struct {
	// AllowOverlap permits right-multiplication to produce an overlapping
	// compressed result instead of collapsing to a dense block.
	AllowOverlap bool `yaml:"allow_overlap" json:"allow_overlap"`

	// Parallelism is the default degree of parallelism for heavy kernels.
	// Values below 1 mean single-threaded execution.
	Parallelism int `yaml:"parallelism" json:"parallelism"`

	// SoftCacheEnabled is loaded and saved with the other settings. Nothing
	// in the module reads it: full decompressions are always retained in
	// the matrix's weak cache slot.
	SoftCacheEnabled bool `yaml:"soft_cache_enabled" json:"soft_cache_enabled"`

	// Codec names the byte-level codec used when writing matrix files
	// (none, zstd, lz4, snappy, s2).
	Codec string `yaml:"codec" json:"codec"`

	// LogLevel sets the logger level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultSettings returns the default runtime configuration.
func DefaultSettings() *Settings {
	return &Settings{
		AllowOverlap:     true,
		Parallelism:      runtime.NumCPU(),
		SoftCacheEnabled: true,
		Codec:            "zstd",
		LogLevel:         "info",
	}
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	if s.Parallelism < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "parallelism must be non-negative, got %d", s.Parallelism)
	}
	switch s.Codec {
	case "", "none", "zstd", "lz4", "snappy", "s2":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown codec %q", s.Codec)
	}
	switch s.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown log level %q", s.LogLevel)
	}
	return nil
}
