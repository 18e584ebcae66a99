package tracker

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/observability"
	"github.com/claude/wodlog/internal/storage"
	"github.com/claude/wodlog/internal/training"
)

// EntryInput holds the user-supplied fields of a session entry.
type EntryInput struct {
	Date        string  `json:"date"`
	Part        string  `json:"part"`
	Format      string  `json:"format"`
	ExerciseID  string  `json:"exerciseId"`
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
	WeightKg    float64 `json:"weight"`
	ElapsedTime string  `json:"elapsedTime"`
	DistanceKm  float64 `json:"distanceKm"`
}

// EntryPatch overwrites the mutable fields of an entry. Nil fields are kept.
type EntryPatch struct {
	Sets        *int     `json:"sets,omitempty"`
	Reps        *int     `json:"reps,omitempty"`
	WeightKg    *float64 `json:"weight,omitempty"`
	ElapsedTime *string  `json:"elapsedTime,omitempty"`
	DistanceKm  *float64 `json:"distanceKm,omitempty"`
	Format      *string  `json:"format,omitempty"`
	Part        *string  `json:"part,omitempty"`
}

// Improvement is a candidate one-rep max estimated from a logged set.
type Improvement struct {
	ExerciseID   string  `json:"exerciseId"`
	Date         string  `json:"date"`
	Sets         int     `json:"sets"`
	Reps         int     `json:"reps"`
	WeightKg     float64 `json:"weight"`
	CurrentMax   float64 `json:"currentMax"`
	EstimatedMax float64 `json:"estimatedMax"`
}

// PendingChange describes a change that needs explicit confirmation.
type PendingChange struct {
	Action      string              `json:"action"`
	Index       int                 `json:"index"`
	Entry       models.SessionEntry `json:"entry"`
	Description string              `json:"description"`
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// buildEntry validates in and derives category, load and percent of max.
// Must be called with t.mu held.
func (t *Tracker) buildEntry(in EntryInput) (models.SessionEntry, error) {
	exercise := strings.TrimSpace(in.ExerciseID)
	if exercise == "" {
		return models.SessionEntry{}, fmt.Errorf("%w: exercise is required", ErrInvalidEntry)
	}
	if in.Reps <= 0 {
		return models.SessionEntry{}, fmt.Errorf("%w: reps must be positive", ErrInvalidEntry)
	}
	sets := in.Sets
	if sets == 0 {
		sets = 1
	}
	if sets < 0 {
		return models.SessionEntry{}, fmt.Errorf("%w: sets must be positive", ErrInvalidEntry)
	}
	if !finiteNonNegative(in.WeightKg) {
		return models.SessionEntry{}, fmt.Errorf("%w: weight must be a non-negative number", ErrInvalidEntry)
	}
	if !finiteNonNegative(in.DistanceKm) {
		return models.SessionEntry{}, fmt.Errorf("%w: distance must be a non-negative number", ErrInvalidEntry)
	}
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = t.today()
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		return models.SessionEntry{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, date)
	}

	category := t.catalog.Category(exercise)
	format := strings.TrimSpace(in.Format)
	if t.catalog.IsMetconFormat(format) {
		category = models.CategoryMetcon
		format = t.catalog.CanonicalFormat(format)
	}

	return models.SessionEntry{
		Date:         date,
		Part:         strings.TrimSpace(in.Part),
		Format:       format,
		ExerciseID:   exercise,
		Category:     category,
		Sets:         sets,
		Reps:         in.Reps,
		WeightKg:     in.WeightKg,
		ElapsedTime:  strings.TrimSpace(in.ElapsedTime),
		DistanceKm:   in.DistanceKm,
		ComputedLoad: in.WeightKg * float64(in.Reps) * float64(sets),
		PercentOfMax: training.Ratio(in.WeightKg, t.state.OneRepMax[exercise]),
	}, nil
}

// detectImprovement applies the Epley rule to e. Must be called with t.mu held.
func (t *Tracker) detectImprovement(e models.SessionEntry) *Improvement {
	current, ok := t.state.OneRepMax[e.ExerciseID]
	if !ok {
		return nil
	}
	est, ok := t.rule.Estimate(e.WeightKg, e.Reps, current)
	if !ok {
		return nil
	}
	observability.RecordImprovement()
	return &Improvement{
		ExerciseID:   e.ExerciseID,
		Date:         e.Date,
		Sets:         e.Sets,
		Reps:         e.Reps,
		WeightKg:     e.WeightKg,
		CurrentMax:   current,
		EstimatedMax: est,
	}
}

// AddEntry validates and prepends a new entry. When the set suggests a higher
// one-rep max the candidate is returned for the caller to accept or ignore.
// On a persistence failure the entry is still kept and returned.
func (t *Tracker) AddEntry(ctx context.Context, in EntryInput) (models.SessionEntry, *Improvement, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.buildEntry(in)
	if err != nil {
		return models.SessionEntry{}, nil, err
	}
	t.state.Entries = append([]models.SessionEntry{e}, t.state.Entries...)
	observability.RecordEntry(string(e.Category))

	imp := t.detectImprovement(e)
	err = t.persist(ctx, "entry "+e.ExerciseID, storage.KeyEntries)
	return e.Clone(), imp, err
}

// ImportEntries adds entries in order, each one prepended, with a single
// write at the end. Invalid inputs are skipped and counted.
func (t *Tracker) ImportEntries(ctx context.Context, inputs []EntryInput, source string) ([]models.SessionEntry, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var added []models.SessionEntry
	skipped := 0
	for _, in := range inputs {
		e, err := t.buildEntry(in)
		if err != nil {
			t.log.Debug("import entry skipped", "source", source, "exercise", in.ExerciseID, "error", err)
			skipped++
			continue
		}
		t.state.Entries = append([]models.SessionEntry{e}, t.state.Entries...)
		observability.RecordEntry(string(e.Category))
		added = append(added, e.Clone())
	}
	if len(added) == 0 {
		return nil, skipped, nil
	}
	t.log.Info("entries imported", "source", source, "added", len(added), "skipped", skipped)
	return added, skipped, t.persist(ctx, fmt.Sprintf("import %s (%d)", source, len(added)), storage.KeyEntries)
}

// AcceptImprovement applies a candidate produced by AddEntry: the current
// max goes to history, the estimate becomes the max, and the entry that
// produced it is recomputed against the new value. The candidate must match
// a logged set and the estimate the improvement rule gives for it.
func (t *Tracker) AcceptImprovement(ctx context.Context, imp Improvement) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.state.OneRepMax[imp.ExerciseID]
	if !ok || current != imp.CurrentMax {
		return ErrStale
	}
	est, ok := t.rule.Estimate(imp.WeightKg, imp.Reps, current)
	if !ok || est != imp.EstimatedMax {
		return fmt.Errorf("%w: %.1f kg x%d does not support an estimate of %.1f", ErrInvalidEntry, imp.WeightKg, imp.Reps, imp.EstimatedMax)
	}
	source := -1
	for i, e := range t.state.Entries {
		if e.ExerciseID == imp.ExerciseID && e.Date == imp.Date &&
			e.Reps == imp.Reps && e.Sets == imp.Sets && e.WeightKg == imp.WeightKg {
			source = i
			break
		}
	}
	if source < 0 {
		return fmt.Errorf("%w: no logged set matches the candidate", ErrInvalidEntry)
	}

	t.pushHistory(imp.ExerciseID, current)
	t.state.OneRepMax[imp.ExerciseID] = est
	observability.RecordMaxUpdate()
	t.state.Entries[source].PercentOfMax = training.Ratio(imp.WeightKg, est)
	t.log.Info("one-rep max improvement accepted", "exercise", imp.ExerciseID, "from", current, "to", est)

	return t.persist(ctx, "1RM estimate "+imp.ExerciseID,
		storage.KeyOneRepMax, storage.KeyHistory, storage.KeyEntries)
}

// Entries returns a copy of the session log, newest first.
func (t *Tracker) Entries() []models.SessionEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.SessionEntry, len(t.state.Entries))
	for i, e := range t.state.Entries {
		out[i] = e.Clone()
	}
	return out
}

// IndexedEntry pairs an entry with its position in the log.
type IndexedEntry struct {
	Index int                 `json:"index"`
	Entry models.SessionEntry `json:"entry"`
}

// EntriesForDate returns the entries logged on date with their log positions.
func (t *Tracker) EntriesForDate(date string) []IndexedEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []IndexedEntry
	for i, e := range t.state.Entries {
		if e.Date == date {
			out = append(out, IndexedEntry{Index: i, Entry: e.Clone()})
		}
	}
	return out
}

func (t *Tracker) checkIndex(idx int) error {
	if idx < 0 || idx >= len(t.state.Entries) {
		return fmt.Errorf("%w: %d (log has %d entries)", ErrIndexOutOfRange, idx, len(t.state.Entries))
	}
	return nil
}

// PlanDelete describes what DeleteEntry would remove, without changing anything.
func (t *Tracker) PlanDelete(idx int) (PendingChange, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkIndex(idx); err != nil {
		return PendingChange{}, err
	}
	e := t.state.Entries[idx]
	return PendingChange{
		Action: "delete",
		Index:  idx,
		Entry:  e.Clone(),
		Description: fmt.Sprintf("Delete %s on %s: %dx%d at %.1f kg",
			e.ExerciseID, e.Date, e.Sets, e.Reps, e.WeightKg),
	}, nil
}

// DeleteEntry removes the entry at idx. confirmed must be true.
func (t *Tracker) DeleteEntry(ctx context.Context, idx int, confirmed bool) (models.SessionEntry, error) {
	if !confirmed {
		return models.SessionEntry{}, ErrNotConfirmed
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkIndex(idx); err != nil {
		return models.SessionEntry{}, err
	}
	removed := t.state.Entries[idx]
	t.state.Entries = append(t.state.Entries[:idx:idx], t.state.Entries[idx+1:]...)
	t.log.Info("entry deleted", "index", idx, "exercise", removed.ExerciseID, "date", removed.Date)

	return removed, t.persist(ctx, "entry deleted "+removed.ExerciseID, storage.KeyEntries)
}

// EditEntry applies patch to the entry at idx and recomputes category, load
// and percent of max. Date and exercise are kept.
func (t *Tracker) EditEntry(ctx context.Context, idx int, patch EntryPatch) (models.SessionEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkIndex(idx); err != nil {
		return models.SessionEntry{}, err
	}

	old := t.state.Entries[idx]
	in := EntryInput{
		Date:        old.Date,
		Part:        old.Part,
		Format:      old.Format,
		ExerciseID:  old.ExerciseID,
		Sets:        old.Sets,
		Reps:        old.Reps,
		WeightKg:    old.WeightKg,
		ElapsedTime: old.ElapsedTime,
		DistanceKm:  old.DistanceKm,
	}
	if patch.Sets != nil {
		in.Sets = *patch.Sets
	}
	if patch.Reps != nil {
		in.Reps = *patch.Reps
	}
	if patch.WeightKg != nil {
		in.WeightKg = *patch.WeightKg
	}
	if patch.ElapsedTime != nil {
		in.ElapsedTime = *patch.ElapsedTime
	}
	if patch.DistanceKm != nil {
		in.DistanceKm = *patch.DistanceKm
	}
	if patch.Format != nil {
		in.Format = *patch.Format
	}
	if patch.Part != nil {
		in.Part = *patch.Part
	}

	e, err := t.buildEntry(in)
	if err != nil {
		return models.SessionEntry{}, err
	}
	t.state.Entries[idx] = e
	return e.Clone(), t.persist(ctx, "entry edited "+e.ExerciseID, storage.KeyEntries)
}
