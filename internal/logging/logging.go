// Package logging builds the slog logger used by the command line front end.
//
// Output goes to stderr so that stdout stays reserved for records. The four
// verbosity names map onto slog levels:
//
//	quiet  -> Error
//	normal -> Warn
//	high   -> Info
//	debug  -> Debug
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Verbosity is the user-facing log level.
type Verbosity int

const (
	Quiet Verbosity = iota
	Normal
	High
	Debug
)

// String returns the flag spelling of v.
func (v Verbosity) String() string {
	switch v {
	case Quiet:
		return "quiet"
	case Normal:
		return "normal"
	case High:
		return "high"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseVerbosity accepts quiet, normal, high or debug, ignoring case.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet":
		return Quiet, nil
	case "", "normal":
		return Normal, nil
	case "high":
		return High, nil
	case "debug":
		return Debug, nil
	default:
		return Normal, fmt.Errorf("invalid verbosity %q: must be one of quiet, normal, high, debug", s)
	}
}

// SlogLevel converts v to the minimum slog level it lets through.
func (v Verbosity) SlogLevel() slog.Level {
	switch v {
	case Quiet:
		return slog.LevelError
	case High:
		return slog.LevelInfo
	case Debug:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

// Config configures New. The zero value is Quiet: errors only, as text to stderr.
type Config struct {
	Verbosity Verbosity
	// JSON switches the handler to one JSON object per line.
	JSON bool
	// Writer overrides stderr.
	Writer io.Writer
	// Service is attached to every entry when set.
	Service string
}

// New returns a logger for cfg.
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Verbosity.SlogLevel()}
	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return logger
}
