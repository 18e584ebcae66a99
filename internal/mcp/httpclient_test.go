package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/server"
	"github.com/claude/wodlog/internal/tracker"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestHTTPClientSendsAPIKey verifies the key header and the decoded body.
func TestHTTPClientSendsAPIKey(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/maxes": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key = %q, want secret", got)
			}
			writeTestJSON(t, w, http.StatusOK, map[string]float64{"Deadlift": 180})
		},
	})

	maxes, err := NewHTTPClient(ts.URL+"/", "secret").Maxes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if maxes["Deadlift"] != 180 {
		t.Errorf("maxes = %v, want Deadlift 180", maxes)
	}
}

// TestHTTPClientEscapesExercise verifies that ids with spaces and brackets
// reach the server decoded.
func TestHTTPClientEscapesExercise(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/maxes/Romanian Deadlift (RDL)/history": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawPath != "" {
				t.Errorf("RawPath = %q, want default encoding", r.URL.RawPath)
			}
			writeTestJSON(t, w, http.StatusOK, map[string]any{
				"exercise": "Romanian Deadlift (RDL)",
				"current":  120.0,
				"history":  []any{},
			})
		},
	})

	mh, err := NewHTTPClient(ts.URL, "").MaxHistory(context.Background(), "Romanian Deadlift (RDL)")
	if err != nil {
		t.Fatal(err)
	}
	if mh.Current == nil || *mh.Current != 120 {
		t.Errorf("current = %v, want 120", mh.Current)
	}
}

// TestHTTPClientErrorMapping verifies that API error statuses unwrap to the
// matching domain errors.
func TestHTTPClientErrorMapping(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/entries": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusInternalServerError, map[string]any{
				"error": "persisting state: disk full", "applied": true,
			})
		},
		"/api/v1/ingest/board": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusUnprocessableEntity, map[string]any{
				"source": "board", "lines_received": 1, "message": "nothing found",
			})
		},
		"/api/v1/catalog/Burpee Box Jump": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		},
	})
	c := NewHTTPClient(ts.URL, "secret")
	ctx := context.Background()

	_, _, err := c.AddEntry(ctx, tracker.EntryInput{ExerciseID: "Deadlift", Reps: 5})
	if !errors.Is(err, tracker.ErrPersistence) {
		t.Errorf("AddEntry err = %v, want ErrPersistence", err)
	}

	res, err := c.ParseBoard(ctx, "descanso", "", true)
	if !errors.Is(err, board.ErrNoEntries) {
		t.Errorf("ParseBoard err = %v, want ErrNoEntries", err)
	}
	if res == nil || res.Message != "nothing found" {
		t.Errorf("ParseBoard result = %+v, want the 422 body", res)
	}

	ex, err := c.Exercise(ctx, "Burpee Box Jump")
	if err != nil {
		t.Fatalf("Exercise: %v", err)
	}
	if ex.ID != "Burpee Box Jump" || ex.Category != "strength" {
		t.Errorf("Exercise = %+v, want an unlisted strength movement", ex)
	}
}

// newRemoteHandlers wires the MCP handlers to a live REST server over the
// given tracker, the way wodlog-mcp -server does.
func newRemoteHandlers(t *testing.T, tr *tracker.Tracker, apiKey string) *handlers {
	t.Helper()
	log := discardLogger()
	srv := server.New(tr, board.NewProvider(tr, log), nil, "secret", 10, log)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &handlers{ds: NewHTTPClient(ts.URL, apiKey), topN: 10, log: log}
}

// TestRemoteToolsShareServerState verifies that tools served through the
// HTTP client read and write the server's tracker rather than a copy.
func TestRemoteToolsShareServerState(t *testing.T) {
	tr := newTestTracker(t)
	h := newRemoteHandlers(t, tr, "secret")
	ctx := context.Background()

	res, _ := h.getOneRepMax(ctx, call(map[string]any{"exercise": "Back Squat"}))
	if got := decodeResult(t, res); got["value"] != 100.0 {
		t.Errorf("value = %v, want 100", got["value"])
	}
	res, _ = h.getOneRepMax(ctx, call(map[string]any{"exercise": "Snatch"}))
	resultText(t, res, true)

	res, _ = h.suggestLoad(ctx, call(map[string]any{"exercise": "Back Squat", "reps": 3.0, "objective": "technique"}))
	advice, _ := decodeResult(t, res)["advice"].(map[string]any)
	if advice["min_load_kg"] != 50.0 || advice["max_load_kg"] != 65.0 {
		t.Errorf("advice = %v, want the technical band", advice)
	}

	res, _ = h.logEntry(ctx, call(map[string]any{
		"exercise": "Back Squat", "reps": 3.0, "sets": 2.0, "weight": 100.0, "date": "2026-03-02",
	}))
	got := decodeResult(t, res)
	if got["improvement"] == nil {
		t.Error("expected an improvement candidate")
	}
	if n := len(tr.Entries()); n != 1 {
		t.Fatalf("server tracker has %d entries, want 1", n)
	}

	res, _ = h.logEntry(ctx, call(map[string]any{"exercise": "Back Squat", "reps": 0.0}))
	resultText(t, res, true)

	res, _ = h.getDaySummary(ctx, call(map[string]any{"date": "2026-03-02"}))
	if got := decodeResult(t, res); got["total_load"] != 600.0 {
		t.Errorf("summary = %v, want total_load 600", got)
	}

	res, _ = h.parseBoard(ctx, call(map[string]any{"text": "descanso"}))
	if msg := resultText(t, res, true); !strings.Contains(msg, "no known exercise") {
		t.Errorf("message = %q", msg)
	}

	res, _ = h.parseBoard(ctx, call(map[string]any{
		"text": "Parte A\nBack Squat 5x5 @ 70%\nB) Deadlift 3x3 120 kg", "date": "2026-03-03", "save": true,
	}))
	if got := decodeResult(t, res); got["entries_inserted"] != 2.0 {
		t.Errorf("save = %v, want 2 inserted", got)
	}
	if n := len(tr.Entries()); n != 3 {
		t.Errorf("server tracker has %d entries, want 3", n)
	}

	var req mcp.ReadResourceRequest
	req.Params.URI = "wodlog://recent_entries"
	contents, err := h.recentEntries(ctx, req)
	if err != nil {
		t.Fatalf("recent_entries: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("recent_entries has %d entries, want 3", len(entries))
	}
}

// TestRemoteWrongAPIKey verifies that a rejected key leaves the server
// state untouched.
func TestRemoteWrongAPIKey(t *testing.T) {
	tr := newTestTracker(t)
	h := newRemoteHandlers(t, tr, "wrong")

	res, _ := h.logEntry(context.Background(), call(map[string]any{"exercise": "Deadlift", "reps": 5.0, "weight": 100.0}))
	if msg := resultText(t, res, true); !strings.Contains(msg, "403") {
		t.Errorf("message = %q, want a 403", msg)
	}
	if n := len(tr.Entries()); n != 0 {
		t.Errorf("server tracker has %d entries, want 0", n)
	}
}
