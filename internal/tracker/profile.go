package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/storage"
)

// Profile returns the athlete profile.
func (t *Tracker) Profile() models.Profile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Profile
}

// SetProfile validates and stores p. Level labels are normalised.
func (t *Tracker) SetProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Goal = strings.TrimSpace(p.Goal)
	if p.Level != "" {
		level, ok := models.NormalizeLevel(string(p.Level))
		if !ok {
			return models.Profile{}, fmt.Errorf("%w: unknown level %q", ErrInvalidProfile, p.Level)
		}
		p.Level = level
	}
	if p.Age < 0 || p.HeightCm < 0 || p.BodyWeightKg < 0 {
		return models.Profile{}, fmt.Errorf("%w: negative measurement", ErrInvalidProfile)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Profile = p
	return p, t.persist(ctx, "profile", storage.KeyProfile)
}

// DayResult returns the result recorded for date, or "".
func (t *Tracker) DayResult(date string) models.DayResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.DayResults[date]
}

// SetDayResult records rx, scaled or incomplete for date. An empty label
// clears it.
func (t *Tracker) SetDayResult(ctx context.Context, date, label string) (models.DayResult, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, date)
	}
	var result models.DayResult
	if strings.TrimSpace(label) != "" {
		r, ok := models.NormalizeDayResult(label)
		if !ok {
			return "", fmt.Errorf("%w: unknown day result %q", ErrInvalidEntry, label)
		}
		result = r
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if result == "" {
		if _, ok := t.state.DayResults[date]; !ok {
			return "", nil
		}
		delete(t.state.DayResults, date)
	} else {
		t.state.DayResults[date] = result
	}
	return result, t.persist(ctx, "day result "+date, storage.KeyDayResults)
}
