// Package logging wraps log/slog behind a small context-aware interface so
// services can be handed a logger at construction time.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a structured logger. Variadic args are key-value pairs:
//
//	log.Info(ctx, "password reset requested", "account_id", id)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel maps a level name to slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, ErrInvalidLevel
	}
}

type Options struct {
	Level  string
	JSON   bool
	Writer io.Writer
}

// New builds a slog-backed Logger. Writer defaults to stderr.
func New(opt Options) (*SlogLogger, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, err
	}

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}

	ho := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if opt.JSON {
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}
	return NewSlogLogger(slog.New(h)), nil
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
