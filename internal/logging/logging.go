// Package logging builds the slog logger shared by the html2pdf binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level   string    // debug, info, warn, error (default info)
	Format  string    // text (default) or json
	File    string    // rotated log file; empty logs to Console only
	Console io.Writer // nil means os.Stderr
}

// New returns a logger writing to the console and, when File is set, to a
// size-rotated file. The returned closer flushes and closes the file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	w := console
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return nil, nil, err
		}
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    25, // megabytes
			MaxBackups: 10,
			MaxAge:     14, // days
			Compress:   true,
		}
		w = io.MultiWriter(console, file)
		closer = file
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(h), closer, nil
}

// ParseLevel maps a level name to a slog level. Unknown names yield info.
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
