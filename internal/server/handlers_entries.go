package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/wodlog/internal/aggregate"
	"github.com/claude/wodlog/internal/tracker"
)

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("date"); date != "" {
		writeJSON(w, http.StatusOK, nonNil(s.tracker.EntriesForDate(date)))
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Entries())
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var in tracker.EntryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	entry, imp, err := s.tracker.AddEntry(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":       entry,
		"improvement": imp,
	})
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	idx, ok := entryIndex(w, r)
	if !ok {
		return
	}
	var patch tracker.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	entry, err := s.tracker.EditEntry(r.Context(), idx, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleDeleteEntry removes an entry only with confirm=true. Without it the
// pending change is returned so the client can ask the user.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	idx, ok := entryIndex(w, r)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if !confirmed {
		plan, err := s.tracker.PlanDelete(idx)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   tracker.ErrNotConfirmed.Error(),
			"pending": plan,
		})
		return
	}
	removed, err := s.tracker.DeleteEntry(r.Context(), idx, true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func (s *Server) handleAcceptImprovement(w http.ResponseWriter, r *http.Request) {
	var imp tracker.Improvement
	if err := json.NewDecoder(r.Body).Decode(&imp); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.tracker.AcceptImprovement(r.Context(), imp); err != nil {
		s.writeError(w, err)
		return
	}
	current, _ := s.tracker.Max(imp.ExerciseID)
	writeJSON(w, http.StatusOK, map[string]any{
		"exercise": imp.ExerciseID,
		"value":    current,
	})
}

func (s *Server) handleDayResult(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	date := chi.URLParam(r, "date")
	result, err := s.tracker.SetDayResult(r.Context(), date, body.Result)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "result": result})
}

func (s *Server) handleDaySummary(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if date == "today" {
		date = s.tracker.Today()
	}
	writeJSON(w, http.StatusOK, aggregate.SummarizeDay(s.tracker.Snapshot(), date))
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	n := s.topN
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, aggregate.BuildPerformance(s.tracker.Snapshot(), n))
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, aggregate.WeeklyTotals(s.tracker.Entries(), aggregate.DefaultWeeks))
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = s.tracker.Today()[:7]
	}
	sum, err := aggregate.SummarizeMonth(s.tracker.Snapshot(), month)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func entryIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid entry index"})
		return 0, false
	}
	return idx, true
}
