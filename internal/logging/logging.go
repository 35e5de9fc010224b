// Package logging installs the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File switches output from stderr to a rotated file.
	File       string
	MaxSizeMB  int
	MaxBackups int
	Service    string
}

// Setup sets slog's default logger and returns a closer for the file, if any.
func Setup(o Options) io.Closer {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if o.File != "" {
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSizeMB, // MB
			MaxBackups: o.MaxBackups,
			MaxAge:     14,
			Compress:   true,
		}
		if lj.MaxSize <= 0 {
			lj.MaxSize = 64
		}
		w, closer = lj, lj
	}

	l := New(w, o.Level)
	if o.Service != "" {
		l = l.With("service", o.Service)
	}
	slog.SetDefault(l)
	return closer
}

func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
