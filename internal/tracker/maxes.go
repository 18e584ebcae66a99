package tracker

import (
	"context"
	"math"
	"strings"

	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/observability"
	"github.com/claude/wodlog/internal/storage"
)

// Exercise ids are trimmed at every entry point below.

// RecordMax sets the one-rep max for exercise. When a different value was
// already recorded it is pushed onto the history first. Empty exercise ids
// and non-positive or non-finite values are ignored; changed reports whether
// anything was written.
func (t *Tracker) RecordMax(ctx context.Context, exercise string, value float64) (changed bool, err error) {
	exercise = strings.TrimSpace(exercise)
	if exercise == "" || !(value > 0) || math.IsInf(value, 1) {
		return false, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.state.OneRepMax[exercise]
	if ok && current == value {
		return false, nil
	}
	if ok {
		t.pushHistory(exercise, current)
	}
	t.state.OneRepMax[exercise] = value
	observability.RecordMaxUpdate()
	t.log.Info("one-rep max recorded", "exercise", exercise, "value", value, "previous", current)

	return true, t.persist(ctx, "1RM "+exercise, storage.KeyOneRepMax, storage.KeyHistory)
}

func (t *Tracker) pushHistory(exercise string, value float64) {
	t.state.History[exercise] = append(t.state.History[exercise], models.HistoryEntry{
		Date:  t.today(),
		Value: value,
	})
}

// DeleteMax removes the current value and the history for exercise.
// Deleting an exercise without a max is a no-op.
func (t *Tracker) DeleteMax(ctx context.Context, exercise string) error {
	exercise = strings.TrimSpace(exercise)
	t.mu.Lock()
	defer t.mu.Unlock()

	_, hasMax := t.state.OneRepMax[exercise]
	_, hasHistory := t.state.History[exercise]
	if !hasMax && !hasHistory {
		return nil
	}
	delete(t.state.OneRepMax, exercise)
	delete(t.state.History, exercise)
	t.log.Info("one-rep max deleted", "exercise", exercise)

	return t.persist(ctx, "1RM deleted "+exercise, storage.KeyOneRepMax, storage.KeyHistory)
}

// Max returns the current one-rep max for exercise.
func (t *Tracker) Max(exercise string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.state.OneRepMax[strings.TrimSpace(exercise)]
	return v, ok
}

// Maxes returns a copy of every current one-rep max.
func (t *Tracker) Maxes() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64, len(t.state.OneRepMax))
	for k, v := range t.state.OneRepMax {
		out[k] = v
	}
	return out
}

// History returns the superseded values for exercise, oldest first.
func (t *Tracker) History(exercise string) []models.HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.HistoryEntry(nil), t.state.History[strings.TrimSpace(exercise)]...)
}
