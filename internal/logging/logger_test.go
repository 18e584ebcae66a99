package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLevel verifies config level names and the info fallback.
func TestLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"trace":   slog.LevelInfo,
	}
	for name, want := range cases {
		if got := Level(name); got != want {
			t.Errorf("Level(%q) = %v, want %v", name, got, want)
		}
	}
}

// TestNewFiltersByLevel verifies that records below the level are dropped.
func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, closer := New(&buf, Params{Level: "warn"})
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("output = %q, want the warn record", out)
	}
}

// TestNewWritesFile verifies that a configured file receives the same records.
func TestNewWritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "wodlog.log")
	log, closer := New(&buf, Params{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1})

	log.Info("entry added", "exercise", "Back Squat")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "entry added") {
		t.Errorf("file = %q, want the record", data)
	}
	if !strings.Contains(buf.String(), "entry added") {
		t.Errorf("stdout copy = %q, want the record", buf.String())
	}
}
