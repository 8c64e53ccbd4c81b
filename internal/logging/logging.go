// Package logging builds the zerolog loggers used by the daemon and CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // "json" or "console"
	// File, when set, receives the log instead of Output.
	File      string
	MaxSizeMB int
	MaxFiles  int
	// Output defaults to stderr.
	Output io.Writer
}

// DefaultConfig returns console output at info level.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// ParseLevel converts a level name. Unknown names map to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New creates a logger for cfg. The returned closer releases the log file
// and is never nil.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	var out io.Writer = cfg.Output
	if out == nil {
		out = os.Stderr
	}
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		f, err := OpenRotating(cfg.File, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = f
	}

	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.File != "",
		}
	}

	log := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
