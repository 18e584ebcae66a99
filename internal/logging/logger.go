// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Params controls where log output goes.
type Params struct {
	Level      string
	File       string // empty writes to stdout only
	MaxSizeMB  int
	MaxBackups int
}

// New returns a text logger writing to w, and additionally to a rotated
// file when p.File is set. The returned closer releases the file.
func New(w io.Writer, p Params) (*slog.Logger, io.Closer) {
	if w == nil {
		w = os.Stdout
	}
	var closer io.Closer = nopCloser{}
	if p.File != "" {
		lj := &lumberjack.Logger{
			Filename:   p.File,
			MaxSize:    p.MaxSizeMB, // megabytes
			MaxBackups: p.MaxBackups,
			LocalTime:  false, // UTC file names
			Compress:   true,
		}
		w = io.MultiWriter(w, lj)
		closer = lj
	}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level(p.Level)}))
	return log, closer
}

// Level maps a config level name to a slog level. Unknown names map to info.
func Level(level string) slog.Level {
	switch strings.ToLower(level) {
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
