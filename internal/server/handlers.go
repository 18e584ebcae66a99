package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/claude/wodlog/internal/backup"
	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/tracker"
	"github.com/claude/wodlog/internal/training"
)

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Catalog().Search(r.URL.Query().Get("q")))
}

func (s *Server) handleCatalogExercise(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.tracker.Catalog().Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Profile())
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	saved, err := s.tracker.SetProfile(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleMaxes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Maxes())
}

func (s *Server) handleMaxHistory(w http.ResponseWriter, r *http.Request) {
	exercise := strings.TrimSpace(chi.URLParam(r, "exercise"))
	current, ok := s.tracker.Max(exercise)
	resp := map[string]any{
		"exercise": exercise,
		"history":  nonNil(s.tracker.History(exercise)),
	}
	if ok {
		resp["current"] = current
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutMax(w http.ResponseWriter, r *http.Request) {
	exercise := strings.TrimSpace(chi.URLParam(r, "exercise"))
	var body struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	changed, err := s.tracker.RecordMax(r.Context(), exercise, body.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	current, _ := s.tracker.Max(exercise)
	writeJSON(w, http.StatusOK, map[string]any{
		"exercise": exercise,
		"value":    current,
		"changed":  changed,
	})
}

func (s *Server) handleDeleteMax(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteMax(r.Context(), chi.URLParam(r, "exercise")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// calcMax resolves the one-rep max for a calculator request: an explicit
// max parameter wins over the stored value.
func (s *Server) calcMax(r *http.Request) float64 {
	if v, ok := queryFloat(r, "max"); ok {
		return v
	}
	v, _ := s.tracker.Max(r.URL.Query().Get("exercise"))
	return v
}

func (s *Server) handleCalcWeight(w http.ResponseWriter, r *http.Request) {
	oneRM := s.calcMax(r)
	percent, _ := queryFloat(r, "percent")
	weight, ok := training.WeightForPercent(oneRM, percent)
	resp := map[string]any{"computable": ok}
	if ok {
		resp["one_rep_max"] = oneRM
		resp["percent"] = percent
		resp["weight"] = weight
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCalcPercent(w http.ResponseWriter, r *http.Request) {
	oneRM := s.calcMax(r)
	weight, _ := queryFloat(r, "weight")
	percent, ok := training.PercentForWeight(oneRM, weight)
	resp := map[string]any{"computable": ok}
	if ok {
		resp["one_rep_max"] = oneRM
		resp["weight"] = weight
		resp["percent"] = percent
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCalcRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exercise := strings.TrimSpace(q.Get("exercise"))
	oneRM := s.calcMax(r)
	reps, err := strconv.Atoi(q.Get("reps"))
	if err != nil {
		reps = 0
	}
	obj, _ := training.ParseObjective(q.Get("objective"))
	technical := exercise != "" && s.tracker.Catalog().IsTechnical(exercise)

	advice, ok := training.Advise(oneRM, reps, obj, technical)
	resp := map[string]any{"computable": ok}
	if !ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp["advice"] = advice

	if target, ok := queryFloat(r, "target"); ok {
		weeks, _ := strconv.Atoi(q.Get("weeks"))
		resp["projection"] = training.ProjectGoal(oneRM, target, weeks, s.tracker.Profile().Level)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Persistence failures
// leave the change applied in memory, so the caller is told so.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracker.ErrInvalidEntry), errors.Is(err, tracker.ErrInvalidProfile),
		errors.Is(err, backup.ErrInvalidFormat):
		status = http.StatusBadRequest
	case errors.Is(err, tracker.ErrIndexOutOfRange), errors.Is(err, tracker.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tracker.ErrStale), errors.Is(err, tracker.ErrNotConfirmed):
		status = http.StatusConflict
	case errors.Is(err, board.ErrNoEntries):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, tracker.ErrPersistence):
		s.log.Error("persist failed, change kept in memory", "error", err)
		writeJSON(w, status, map[string]any{"error": err.Error(), "applied": true})
		return
	default:
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// queryFloat parses a numeric query parameter. Decimal commas are accepted.
// ok is false for missing, malformed or non-finite values.
func queryFloat(r *http.Request, name string) (float64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
