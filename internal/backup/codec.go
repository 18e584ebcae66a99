// Package backup encodes and decodes the full application state as a
// versioned JSON document and writes scheduled snapshots to disk.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/training"
)

// Version is the document version written by Encode.
const Version = 3

// ErrInvalidFormat is returned when a document is not a JSON object or
// carries neither a one-rep-max store nor a session log.
var ErrInvalidFormat = errors.New("invalid backup format")

// Document is the current backup layout.
type Document struct {
	Version          int                              `json:"version"`
	CreatedAt        time.Time                        `json:"createdAt"`
	Profile          models.Profile                   `json:"profile"`
	OneRepMax        map[string]float64               `json:"oneRepMax"`
	OneRepMaxHistory map[string][]models.HistoryEntry `json:"oneRepMaxHistory"`
	SessionEntries   []models.SessionEntry            `json:"sessionEntries"`
	DayResults       map[string]models.DayResult      `json:"dayResults"`
	Reservations     []models.Reservation             `json:"reservations"`
	Attendance       []models.Attendance              `json:"attendance"`
}

// NewDocument wraps a state snapshot taken at createdAt.
func NewDocument(s models.State, createdAt time.Time) Document {
	s = s.Clone()
	return Document{
		Version:          Version,
		CreatedAt:        createdAt.UTC(),
		Profile:          s.Profile,
		OneRepMax:        s.OneRepMax,
		OneRepMaxHistory: s.History,
		SessionEntries:   orEmpty(s.Entries),
		DayResults:       s.DayResults,
		Reservations:     orEmpty(s.Reservations),
		Attendance:       orEmpty(s.Attendance),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Encode serializes the state as an indented version 3 document.
func Encode(s models.State, createdAt time.Time) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(s, createdAt), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	return data, nil
}

// Decode parses a backup document, current or legacy, into a state.
// The caller's state is never touched; replacing it is a separate step.
func Decode(data []byte) (models.State, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &keys); err != nil {
		return models.State{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if keys == nil {
		return models.State{}, fmt.Errorf("%w: document is null", ErrInvalidFormat)
	}

	var (
		s   models.State
		err error
	)
	switch {
	case has(keys, "oneRepMax", "sessionEntries"):
		s, err = decodeCurrent(data)
	case has(keys, "dataRm", "treinos"):
		s, err = decodeLegacy(data)
	default:
		return models.State{}, fmt.Errorf("%w: no one-rep-max store or session log", ErrInvalidFormat)
	}
	if err != nil {
		return models.State{}, err
	}
	normalizeEntries(&s)
	return s, nil
}

// normalizeEntries applies the session log rules to imported entries: at
// least one set and one rep, no negative weight or distance, and load and
// percent of max derived from the entry and the imported maxes.
func normalizeEntries(s *models.State) {
	for i := range s.Entries {
		e := &s.Entries[i]
		if e.Sets < 1 {
			e.Sets = 1
		}
		if e.Reps < 1 {
			e.Reps = 1
		}
		if !(e.WeightKg > 0) || math.IsInf(e.WeightKg, 0) {
			e.WeightKg = 0
		}
		if !(e.DistanceKm > 0) || math.IsInf(e.DistanceKm, 0) {
			e.DistanceKm = 0
		}
		e.ComputedLoad = e.WeightKg * float64(e.Reps) * float64(e.Sets)
		e.PercentOfMax = training.Ratio(e.WeightKg, s.OneRepMax[e.ExerciseID])
	}
}

func has(keys map[string]json.RawMessage, names ...string) bool {
	for _, n := range names {
		if _, ok := keys[n]; ok {
			return true
		}
	}
	return false
}

func decodeCurrent(data []byte) (models.State, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.State{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Version > Version {
		return models.State{}, fmt.Errorf("%w: version %d is newer than %d", ErrInvalidFormat, doc.Version, Version)
	}

	s := models.NewState()
	s.Profile = doc.Profile
	if lvl, ok := models.NormalizeLevel(string(s.Profile.Level)); ok {
		s.Profile.Level = lvl
	}
	for ex, v := range doc.OneRepMax {
		if ex != "" && v > 0 {
			s.OneRepMax[ex] = v
		}
	}
	for ex, h := range doc.OneRepMaxHistory {
		if len(h) > 0 {
			s.History[ex] = h
		}
	}
	for _, e := range doc.SessionEntries {
		e.Category, _ = models.NormalizeCategory(string(e.Category))
		s.Entries = append(s.Entries, e)
	}
	for date, label := range doc.DayResults {
		if r, ok := models.NormalizeDayResult(string(label)); ok {
			s.DayResults[date] = r
		}
	}
	s.Reservations = doc.Reservations
	s.Attendance = doc.Attendance
	return s, nil
}

// Replacer swaps the whole application state.
type Replacer interface {
	Replace(ctx context.Context, s models.State, event string) error
}

// Import decodes data and hands the result to r. A document that fails to
// decode leaves r untouched.
func Import(ctx context.Context, r Replacer, data []byte) (models.State, error) {
	s, err := Decode(data)
	if err != nil {
		return models.State{}, err
	}
	if err := r.Replace(ctx, s, "backup imported"); err != nil {
		return models.State{}, err
	}
	return s, nil
}
