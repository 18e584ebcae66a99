// Package tracker owns the application state: one-rep maxes and their
// history, the session log, day results, profile, reservations and backup
// metadata. Every mutation is written through to the store before it
// returns.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/claude/wodlog/internal/catalog"
	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/observability"
	"github.com/claude/wodlog/internal/storage"
	"github.com/claude/wodlog/internal/training"
)

var (
	ErrInvalidEntry    = errors.New("invalid entry")
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrIndexOutOfRange = errors.New("entry index out of range")
	ErrNotConfirmed    = errors.New("change not confirmed")
	ErrStale           = errors.New("one-rep max changed since the estimate was made")
	ErrNotFound        = errors.New("not found")

	// ErrPersistence wraps write-through failures. The change is kept in
	// memory when it is returned.
	ErrPersistence = errors.New("persisting state")
)

// Tracker is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	store   storage.Store
	catalog *catalog.Catalog
	rule    training.ImprovementRule
	log     *slog.Logger
	now     func() time.Time

	state models.State
	meta  models.BackupMeta
}

// New loads the persisted state from store.
func New(ctx context.Context, store storage.Store, cat *catalog.Catalog, rule training.ImprovementRule, log *slog.Logger) (*Tracker, error) {
	t := &Tracker{
		store:   store,
		catalog: cat,
		rule:    rule,
		log:     log,
		now:     time.Now,
		state:   models.NewState(),
	}
	if err := t.load(ctx); err != nil {
		return nil, err
	}
	log.Info("state loaded",
		"maxes", len(t.state.OneRepMax),
		"entries", len(t.state.Entries),
		"reservations", len(t.state.Reservations),
	)
	return t, nil
}

// SetClock replaces the time source. Intended for tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Catalog returns the exercise catalog in use.
func (t *Tracker) Catalog() *catalog.Catalog {
	return t.catalog
}

// Rule returns the improvement thresholds in use.
func (t *Tracker) Rule() training.ImprovementRule {
	return t.rule
}

func (t *Tracker) today() string {
	return t.now().Format(models.DateLayout)
}

// Today returns the current date on the tracker's clock.
func (t *Tracker) Today() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.today()
}

func (t *Tracker) load(ctx context.Context) error {
	targets := map[string]any{
		storage.KeyProfile:      &t.state.Profile,
		storage.KeyOneRepMax:    &t.state.OneRepMax,
		storage.KeyHistory:      &t.state.History,
		storage.KeyEntries:      &t.state.Entries,
		storage.KeyDayResults:   &t.state.DayResults,
		storage.KeyReservations: &t.state.Reservations,
		storage.KeyAttendance:   &t.state.Attendance,
		storage.KeyBackupMeta:   &t.meta,
	}
	for _, key := range storage.Keys {
		doc, err := t.store.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading %s: %w", key, err)
		}
		if err := json.Unmarshal(doc, targets[key]); err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
	}
	// A stored JSON null leaves the map nil.
	if t.state.OneRepMax == nil {
		t.state.OneRepMax = map[string]float64{}
	}
	if t.state.History == nil {
		t.state.History = map[string][]models.HistoryEntry{}
	}
	if t.state.DayResults == nil {
		t.state.DayResults = map[string]models.DayResult{}
	}
	return nil
}

func documentFor(s *models.State, meta *models.BackupMeta, key string) ([]byte, error) {
	var v any
	switch key {
	case storage.KeyProfile:
		v = s.Profile
	case storage.KeyOneRepMax:
		v = s.OneRepMax
	case storage.KeyHistory:
		v = s.History
	case storage.KeyEntries:
		v = nonNil(s.Entries)
	case storage.KeyDayResults:
		v = s.DayResults
	case storage.KeyReservations:
		v = nonNil(s.Reservations)
	case storage.KeyAttendance:
		v = nonNil(s.Attendance)
	case storage.KeyBackupMeta:
		v = meta
	default:
		return nil, fmt.Errorf("unknown document key %q", key)
	}
	return json.Marshal(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// persist writes the given keys plus backup metadata. Must be called with
// t.mu held.
func (t *Tracker) persist(ctx context.Context, event string, keys ...string) error {
	now := t.now()
	t.meta.LastChange = &now
	t.meta.LastEvent = event
	keys = append(keys, storage.KeyBackupMeta)

	var errs error
	for _, key := range keys {
		doc, err := documentFor(&t.state, &t.meta, key)
		if err == nil {
			err = t.store.Put(ctx, key, doc)
		}
		if err != nil {
			observability.RecordPersistFailure(key)
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		t.log.Error("persist failed", "event", event, "error", errs)
		return fmt.Errorf("%w (%s): %w", ErrPersistence, event, errs)
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (t *Tracker) Snapshot() models.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Meta returns the backup metadata.
func (t *Tracker) Meta() models.BackupMeta {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.meta
}

// Replace swaps the whole state for s. The new state is written in one
// transaction first; on failure the current state is left untouched.
func (t *Tracker) Replace(ctx context.Context, s models.State, event string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := s.Clone()
	meta := t.meta
	now := t.now()
	meta.LastChange = &now
	meta.LastEvent = event

	docs := make(map[string][]byte, len(storage.Keys))
	for _, key := range storage.Keys {
		doc, err := documentFor(&next, &meta, key)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		docs[key] = doc
	}
	if err := t.store.PutAll(ctx, docs); err != nil {
		observability.RecordPersistFailure("all")
		t.log.Error("replace failed", "event", event, "error", err)
		return fmt.Errorf("%w (%s): %w", ErrPersistence, event, err)
	}

	t.state = next
	t.meta = meta
	t.log.Info("state replaced", "event", event, "entries", len(next.Entries), "maxes", len(next.OneRepMax))
	return nil
}

// MarkBackup records a successful export at the given time.
func (t *Tracker) MarkBackup(ctx context.Context, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.meta.LastBackup = &at
	doc, err := documentFor(&t.state, &t.meta, storage.KeyBackupMeta)
	if err != nil {
		return err
	}
	if err := t.store.Put(ctx, storage.KeyBackupMeta, doc); err != nil {
		observability.RecordPersistFailure(storage.KeyBackupMeta)
		return fmt.Errorf("%w (backup): %w", ErrPersistence, err)
	}
	return nil
}

// RecordImport stores the outcome of an ingest run.
func (t *Tracker) RecordImport(ctx context.Context, l storage.ImportLog) {
	if _, err := t.store.InsertImportLog(ctx, l); err != nil {
		t.log.Warn("recording import log", "source", l.Source, "error", err)
	}
}

// ImportLogs returns the most recent ingest runs.
func (t *Tracker) ImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error) {
	return t.store.QueryImportLogs(ctx, limit)
}
