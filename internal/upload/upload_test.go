package upload

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// fakeServer records ingest calls and answers with a fixed entry count.
type fakeServer struct {
	boards atomic.Int32
	fits   atomic.Int32
	keys   []string
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/ingest/board", func(w http.ResponseWriter, r *http.Request) {
		f.keys = append(f.keys, r.Header.Get("X-API-Key"))
		var body struct{ Text, Date string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding board body: %v", err)
		}
		if body.Date != "2026-03-02" {
			t.Errorf("board date = %q, want 2026-03-02", body.Date)
		}
		f.boards.Add(1)
		w.Write([]byte(`{"entries_parsed":2,"entries_inserted":2}`))
	})
	mux.HandleFunc("POST /api/v1/ingest/fit", func(w http.ResponseWriter, r *http.Request) {
		f.keys = append(f.keys, r.Header.Get("X-API-Key"))
		if ct := r.Header.Get("Content-Type"); ct != "application/octet-stream" {
			t.Errorf("FIT content type = %q", ct)
		}
		io.Copy(io.Discard, r.Body)
		f.fits.Add(1)
		w.Write([]byte(`{"entries_parsed":1,"entries_inserted":1}`))
	})
	return mux
}

func newTestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"2026-03-02.txt":    "Back Squat 5x5 100 kg",
		"notes.txt":         "no date here",
		"watch/morning.fit": "fit bytes",
		"README.md":         "ignored",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRunSkipsSentFiles verifies that a second run sends nothing new.
func TestRunSkipsSentFiles(t *testing.T) {
	fake := &fakeServer{}
	ts := httptest.NewServer(fake.handler(t))
	defer ts.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	dir := newTestDir(t)
	client := NewClient(ts.URL, "secret")

	stats, err := New(client, state, dir, false, discardLogger()).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FilesTotal != 3 || stats.FilesUploaded != 2 || stats.FilesSkipped != 1 {
		t.Errorf("total/uploaded/skipped = %d/%d/%d, want 3/2/1", stats.FilesTotal, stats.FilesUploaded, stats.FilesSkipped)
	}
	if stats.EntriesInserted != 3 {
		t.Errorf("entries inserted = %d, want 3", stats.EntriesInserted)
	}
	for _, k := range fake.keys {
		if k != "secret" {
			t.Errorf("X-API-Key = %q, want secret", k)
		}
	}

	stats, err = New(client, state, dir, false, discardLogger()).Run()
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if stats.FilesUploaded != 0 || stats.FilesSkipped != 3 {
		t.Errorf("second run uploaded/skipped = %d/%d, want 0/3", stats.FilesUploaded, stats.FilesSkipped)
	}
	if fake.boards.Load() != 1 || fake.fits.Load() != 1 {
		t.Errorf("server saw %d boards and %d FIT files, want 1 and 1", fake.boards.Load(), fake.fits.Load())
	}
}

// TestRunResendsChangedFile verifies that an edited file is sent again.
func TestRunResendsChangedFile(t *testing.T) {
	fake := &fakeServer{}
	ts := httptest.NewServer(fake.handler(t))
	defer ts.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	dir := newTestDir(t)
	client := NewClient(ts.URL, "secret")
	if _, err := New(client, state, dir, false, discardLogger()).Run(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "2026-03-02.txt"), []byte("Deadlift 3x3 120 kg"), 0o644); err != nil {
		t.Fatal(err)
	}
	stats, err := New(client, state, dir, false, discardLogger()).Run()
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesUploaded != 1 || fake.boards.Load() != 2 {
		t.Errorf("uploaded = %d, boards = %d, want 1 and 2", stats.FilesUploaded, fake.boards.Load())
	}
}

// TestRunDryRun verifies that a dry run neither sends nor records files.
func TestRunDryRun(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	dir := newTestDir(t)
	stats, err := New(nil, state, dir, true, discardLogger()).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FilesUploaded != 2 {
		t.Errorf("uploaded = %d, want 2", stats.FilesUploaded)
	}
	sent, err := state.IsSent("2026-03-02.txt", hashBytes([]byte("Back Squat 5x5 100 kg")))
	if err != nil {
		t.Fatal(err)
	}
	if sent {
		t.Error("dry run marked a file as sent")
	}
}

// TestClientRetriesServerErrors verifies that 5xx responses are retried.
func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"entries_parsed":1,"entries_inserted":1}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "secret")
	client.backoff = time.Millisecond
	resp, err := client.SendFIT([]byte("fit"))
	if err != nil {
		t.Fatalf("SendFIT: %v", err)
	}
	if resp.EntriesInserted != 1 || calls.Load() != 2 {
		t.Errorf("inserted = %d after %d calls, want 1 after 2", resp.EntriesInserted, calls.Load())
	}
}

// TestClientDoesNotRetryClientErrors verifies that 4xx responses fail at once.
func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"invalid API key"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "wrong")
	client.backoff = time.Millisecond
	if _, err := client.SendFIT([]byte("fit")); err == nil {
		t.Fatal("expected error for 403")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

// TestClientAcceptsEmptyBoard verifies that a 422 board response is not an error.
func TestClientAcceptsEmptyBoard(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"entries_parsed":0,"entries_inserted":0,"message":"no known exercise"}`))
	}))
	defer ts.Close()

	resp, err := NewClient(ts.URL, "secret").SendBoard("descanso", "2026-03-02")
	if err != nil {
		t.Fatalf("SendBoard: %v", err)
	}
	if resp.EntriesInserted != 0 || resp.Message == "" {
		t.Errorf("resp = %+v", resp)
	}
}
