package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/wodlog/internal/backup"
	"github.com/claude/wodlog/internal/ingest"
	"github.com/claude/wodlog/internal/ingest/board"
)

const (
	maxFITBytes    = 16 << 20
	maxBackupBytes = 32 << 20
)

func (s *Server) handleBoardIngest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text    string `json:"text"`
		Date    string `json:"date"`
		Preview bool   `json:"preview"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	var (
		result *ingest.Result
		err    error
	)
	if body.Preview {
		result, err = s.board.Preview(body.Text, body.Date)
	} else {
		result, err = s.board.Ingest(r.Context(), body.Text, body.Date)
	}
	if errors.Is(err, board.ErrNoEntries) {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFITIngest(w http.ResponseWriter, r *http.Request) {
	result, err := s.fit.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxFITBytes))
	if err != nil {
		s.log.Error("FIT ingest error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleBackupExport streams the current state as a backup document and
// records the export time.
func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	data, err := backup.Encode(s.tracker.Snapshot(), now)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.tracker.MarkBackup(r.Context(), now); err != nil {
		s.log.Warn("recording backup time failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(now)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleBackupImport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	res := &ingest.Result{Source: ingest.SourceBackup}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		ingest.Record(s.tracker, res, err, started)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}
	state, err := backup.Import(r.Context(), s.tracker, data)
	if err == nil {
		res.EntriesParsed = len(state.Entries)
		res.EntriesInserted = len(state.Entries)
	}
	ingest.Record(s.tracker, res, err, started)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":      len(state.Entries),
		"maxes":        len(state.OneRepMax),
		"reservations": len(state.Reservations),
	})
}

func (s *Server) handleBackupMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Meta())
}

// handleBackupSnapshot writes a snapshot file immediately, outside the schedule.
func (s *Server) handleBackupSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.backups == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "backup directory not configured"})
		return
	}
	path, err := s.backups.RunOnce(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.tracker.ImportLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, nonNil(logs))
}
