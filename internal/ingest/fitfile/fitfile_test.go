package fitfile

import (
	"bytes"
	"testing"
	"time"

	"github.com/tormoder/fit"

	"github.com/claude/wodlog/internal/models"
)

// TestEntryFromRunningSession verifies date, elapsed time and distance.
func TestEntryFromRunningSession(t *testing.T) {
	s := fit.NewSessionMsg()
	s.Sport = fit.SportRunning
	s.StartTime = time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	s.TotalElapsedTime = 1_530_000 // 1530 s, scale 1000
	s.TotalDistance = 502_000      // 5020 m, scale 100

	e, ok := entryFromSession(s, time.UTC)
	if !ok {
		t.Fatal("running session not mapped")
	}
	if e.ExerciseID != "Running" || e.Category != models.CategoryMetcon {
		t.Errorf("entry = %+v", e)
	}
	if e.Date != "2026-03-02" {
		t.Errorf("Date = %q, want 2026-03-02", e.Date)
	}
	if e.ElapsedTime != "25:30" {
		t.Errorf("ElapsedTime = %q, want 25:30", e.ElapsedTime)
	}
	if e.DistanceKm != 5.02 {
		t.Errorf("DistanceKm = %v, want 5.02", e.DistanceKm)
	}

	lisbon := time.FixedZone("UTC+1", 3600)
	if e, _ := entryFromSession(s, lisbon); e.Date != "2026-03-03" {
		t.Errorf("Date in UTC+1 = %q, want 2026-03-03", e.Date)
	}
}

// TestEntryFromSessionInvalidValues verifies that unset FIT fields are left empty.
func TestEntryFromSessionInvalidValues(t *testing.T) {
	s := fit.NewSessionMsg()
	s.Sport = fit.SportRowing
	s.StartTime = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	e, ok := entryFromSession(s, nil)
	if !ok {
		t.Fatal("rowing session not mapped")
	}
	if e.ExerciseID != "Rowing" || e.ElapsedTime != "" || e.DistanceKm != 0 {
		t.Errorf("entry = %+v", e)
	}
}

// TestEntryFromUnmappedSport verifies that other sports are skipped.
func TestEntryFromUnmappedSport(t *testing.T) {
	s := fit.NewSessionMsg()
	s.Sport = fit.SportCycling
	s.StartTime = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	if _, ok := entryFromSession(s, time.UTC); ok {
		t.Error("cycling session should not be mapped")
	}
}

// TestParseRejectsGarbage verifies that non-FIT input is an error.
func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(bytes.NewReader([]byte("not a fit file")), time.UTC); err == nil {
		t.Error("expected decode error")
	}
}
