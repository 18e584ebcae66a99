package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/wodlog/internal/catalog"
	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/storage"
	"github.com/claude/wodlog/internal/tracker"
	"github.com/claude/wodlog/internal/training"
)

// newTestTracker returns a tracker over a fresh SQLite store with a 100 kg
// Back Squat max.
func newTestTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	ctx := context.Background()
	store, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "wodlog.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cat, err := catalog.Load("v1")
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	tr, err := tracker.New(ctx, store, cat, training.DefaultImprovementRule(), discardLogger())
	if err != nil {
		t.Fatalf("tracker.New: %v", err)
	}
	if _, err := tr.RecordMax(ctx, "Back Squat", 100); err != nil {
		t.Fatal(err)
	}
	return tr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandlers(t *testing.T) (*handlers, *tracker.Tracker) {
	t.Helper()
	tr := newTestTracker(t)
	log := discardLogger()
	return &handlers{ds: NewLocal(tr, board.NewProvider(tr, log)), topN: 10, log: log}, tr
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultText returns the text of a tool result and fails on tool errors
// unless wantErr is set.
func resultText(t *testing.T, res *mcp.CallToolResult, wantErr bool) string {
	t.Helper()
	if res == nil {
		t.Fatal("nil result")
	}
	if res.IsError != wantErr {
		t.Fatalf("IsError = %v, want %v (content %+v)", res.IsError, wantErr, res.Content)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty result content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func decodeResult(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res, false)), &out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return out
}

// TestNewRegistersServer verifies that the server builds with every tool.
func TestNewRegistersServer(t *testing.T) {
	h, _ := newTestHandlers(t)
	if s := New(h.ds, 10, "test", h.log); s == nil {
		t.Fatal("New returned nil")
	}
}

// TestGetOneRepMax verifies single-exercise and list modes.
func TestGetOneRepMax(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := context.Background()

	res, _ := h.getOneRepMax(ctx, call(map[string]any{"exercise": "Back Squat"}))
	if got := decodeResult(t, res); got["value"] != 100.0 {
		t.Errorf("value = %v, want 100", got["value"])
	}

	res, _ = h.getOneRepMax(ctx, call(map[string]any{}))
	if got := decodeResult(t, res); got["Back Squat"] != 100.0 {
		t.Errorf("maxes = %v", got)
	}

	res, _ = h.getOneRepMax(ctx, call(map[string]any{"exercise": "Snatch"}))
	resultText(t, res, true)
}

// TestSuggestLoad verifies the percent mode and the range mode.
func TestSuggestLoad(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := context.Background()

	res, _ := h.suggestLoad(ctx, call(map[string]any{"exercise": "Back Squat", "percent": 80.0}))
	if got := decodeResult(t, res); got["weight"] != 80.0 {
		t.Errorf("weight = %v, want 80", got["weight"])
	}

	res, _ = h.suggestLoad(ctx, call(map[string]any{"exercise": "Back Squat", "reps": 3.0, "objective": "technique"}))
	advice, _ := decodeResult(t, res)["advice"].(map[string]any)
	if advice["min_load_kg"] != 50.0 || advice["max_load_kg"] != 65.0 {
		t.Errorf("advice = %v, want 50–65 kg", advice)
	}

	res, _ = h.suggestLoad(ctx, call(map[string]any{"exercise": "Back Squat"}))
	resultText(t, res, true)
}

// TestPercentOfMax verifies the inverse calculation.
func TestPercentOfMax(t *testing.T) {
	h, _ := newTestHandlers(t)
	res, _ := h.percentOfMax(context.Background(), call(map[string]any{"exercise": "Back Squat", "weight": 87.5}))
	if got := decodeResult(t, res); got["percent"] != 88.0 {
		t.Errorf("percent = %v, want 88", got["percent"])
	}
}

// TestLogEntry verifies that a logged set is stored and an improvement surfaced.
func TestLogEntry(t *testing.T) {
	h, tr := newTestHandlers(t)
	ctx := context.Background()

	res, _ := h.logEntry(ctx, call(map[string]any{
		"exercise": "Back Squat", "reps": 3.0, "sets": 2.0, "weight": 100.0, "date": "2026-03-02",
	}))
	got := decodeResult(t, res)
	entry, _ := got["entry"].(map[string]any)
	if entry["computedLoad"] != 600.0 {
		t.Errorf("entry = %v, want load 600", entry)
	}
	if got["improvement"] == nil {
		t.Error("expected an improvement candidate for 100 kg x3 against a 100 kg max")
	}
	if n := len(tr.Entries()); n != 1 {
		t.Errorf("log has %d entries, want 1", n)
	}

	res, _ = h.logEntry(ctx, call(map[string]any{"exercise": "Back Squat", "reps": 0.0}))
	resultText(t, res, true)
}

// TestParseBoardPreviewAndSave verifies that nothing is stored without save.
func TestParseBoardPreviewAndSave(t *testing.T) {
	h, tr := newTestHandlers(t)
	ctx := context.Background()
	text := "Parte A\nBack Squat 5x5 @ 70%\nB) Deadlift 3x3 120 kg"

	res, _ := h.parseBoard(ctx, call(map[string]any{"text": text, "date": "2026-03-02"}))
	if got := decodeResult(t, res); got["entries_parsed"] != 2.0 {
		t.Errorf("preview = %v, want 2 entries", got)
	}
	if n := len(tr.Entries()); n != 0 {
		t.Fatalf("preview stored %d entries", n)
	}

	res, _ = h.parseBoard(ctx, call(map[string]any{"text": text, "date": "2026-03-02", "save": true}))
	if got := decodeResult(t, res); got["entries_inserted"] != 2.0 {
		t.Errorf("save = %v, want 2 inserted", got)
	}

	res, _ = h.parseBoard(ctx, call(map[string]any{"text": "descanso"}))
	if msg := resultText(t, res, true); !strings.Contains(msg, "no known exercise") {
		t.Errorf("message = %q", msg)
	}
}

// TestDaySummaryAndPerformance verifies the read-only aggregate tools.
func TestDaySummaryAndPerformance(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := context.Background()
	h.logEntry(ctx, call(map[string]any{"exercise": "Deadlift", "reps": 5.0, "sets": 3.0, "weight": 100.0, "date": "2026-03-02"}))

	res, _ := h.getDaySummary(ctx, call(map[string]any{"date": "2026-03-02"}))
	if got := decodeResult(t, res); got["total_load"] != 1500.0 {
		t.Errorf("summary = %v", got)
	}

	res, _ = h.getPerformance(ctx, call(map[string]any{"limit": 5.0}))
	got := decodeResult(t, res)
	days, _ := got["days"].([]any)
	if len(days) != 1 {
		t.Errorf("days = %v, want 1", got["days"])
	}
}

// TestResources verifies the resource payloads.
func TestResources(t *testing.T) {
	h, _ := newTestHandlers(t)
	ctx := context.Background()

	var req mcp.ReadResourceRequest
	req.Params.URI = "wodlog://maxes"
	contents, err := h.maxes(ctx, req)
	if err != nil {
		t.Fatalf("maxes: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents)
	if text.URI != "wodlog://maxes" || !strings.Contains(text.Text, `"Back Squat":100`) {
		t.Errorf("maxes resource = %+v", text)
	}

	req.Params.URI = "wodlog://catalog"
	contents, err = h.catalog(ctx, req)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if !strings.Contains(contents[0].(mcp.TextResourceContents).Text, `"id":"Back Squat"`) {
		t.Error("catalog resource does not list Back Squat")
	}

	req.Params.URI = "wodlog://recent_entries"
	contents, err = h.recentEntries(ctx, req)
	if err != nil {
		t.Fatalf("recent_entries: %v", err)
	}
	if got := contents[0].(mcp.TextResourceContents).Text; got != "[]" {
		t.Errorf("recent_entries = %q, want []", got)
	}
}
