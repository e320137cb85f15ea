// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configure New.
type Options struct {
	Level    string // debug | info | warn | error
	Format   string // json | text
	GelfAddr string // optional host:port of a GELF UDP input
	Service  string
}

// New returns a logger writing to stderr, teed to a GELF UDP input when
// GelfAddr is set. GELF setup failures are reported on the returned logger
// and do not stop startup.
func New(opts Options) *slog.Logger {
	var out io.Writer = os.Stderr
	var gelfErr error
	if opts.GelfAddr != "" {
		g, err := NewGelfWriter(opts.GelfAddr, opts.Service)
		if err != nil {
			gelfErr = err
		} else {
			// GELF needs JSON records; stderr gets whatever format was asked for.
			return slog.New(fanout{
				primary: handler(os.Stderr, opts),
				gelf:    slog.NewJSONHandler(g, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}),
			})
		}
	}
	logger := slog.New(handler(out, opts))
	if gelfErr != nil {
		logger.Warn("GELF init failed", "addr", opts.GelfAddr, "error", gelfErr)
	}
	return logger
}

func handler(w io.Writer, opts Options) slog.Handler {
	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	if strings.EqualFold(opts.Format, "text") {
		return slog.NewTextHandler(w, ho)
	}
	return slog.NewJSONHandler(w, ho)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
