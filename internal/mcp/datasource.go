package mcp

import (
	"context"

	"github.com/claude/wodlog/internal/aggregate"
	"github.com/claude/wodlog/internal/catalog"
	"github.com/claude/wodlog/internal/ingest"
	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/tracker"
)

// MaxHistory is the current one-rep max of an exercise and its history.
// Current is nil when no max is recorded.
type MaxHistory struct {
	Exercise string                `json:"exercise"`
	Current  *float64              `json:"current,omitempty"`
	History  []models.HistoryEntry `json:"history"`
}

// DataSource abstracts the training log for MCP tools. Local (in-process
// tracker) and HTTPClient (remote via REST API) both satisfy it.
type DataSource interface {
	Catalog(ctx context.Context) ([]catalog.Exercise, error)
	// Exercise returns the catalog entry for id. Unlisted ids come back
	// with only ID and Category set.
	Exercise(ctx context.Context, id string) (catalog.Exercise, error)
	Profile(ctx context.Context) (models.Profile, error)
	Maxes(ctx context.Context) (map[string]float64, error)
	MaxHistory(ctx context.Context, exercise string) (MaxHistory, error)
	Entries(ctx context.Context) ([]models.SessionEntry, error)
	AddEntry(ctx context.Context, in tracker.EntryInput) (models.SessionEntry, *tracker.Improvement, error)
	DaySummary(ctx context.Context, date string) (aggregate.DaySummary, error)
	Performance(ctx context.Context, n int) (aggregate.Performance, error)
	// ParseBoard previews board text, or stores it when save is set. A
	// board without known exercises returns the result and board.ErrNoEntries.
	ParseBoard(ctx context.Context, text, date string, save bool) (*ingest.Result, error)
}

// Local serves MCP tools from an in-process tracker.
type Local struct {
	tracker *tracker.Tracker
	board   *board.Provider
}

// Compile-time check: *Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal wraps a tracker and its board provider.
func NewLocal(t *tracker.Tracker, b *board.Provider) *Local {
	return &Local{tracker: t, board: b}
}

func (l *Local) Catalog(context.Context) ([]catalog.Exercise, error) {
	return l.tracker.Catalog().All(), nil
}

func (l *Local) Exercise(_ context.Context, id string) (catalog.Exercise, error) {
	if ex, ok := l.tracker.Catalog().Lookup(id); ok {
		return ex, nil
	}
	return catalog.Exercise{ID: id, Category: l.tracker.Catalog().Category(id)}, nil
}

func (l *Local) Profile(context.Context) (models.Profile, error) {
	return l.tracker.Profile(), nil
}

func (l *Local) Maxes(context.Context) (map[string]float64, error) {
	return l.tracker.Maxes(), nil
}

func (l *Local) MaxHistory(_ context.Context, exercise string) (MaxHistory, error) {
	mh := MaxHistory{Exercise: exercise, History: l.tracker.History(exercise)}
	if mh.History == nil {
		mh.History = []models.HistoryEntry{}
	}
	if v, ok := l.tracker.Max(exercise); ok {
		mh.Current = &v
	}
	return mh, nil
}

func (l *Local) Entries(context.Context) ([]models.SessionEntry, error) {
	return l.tracker.Entries(), nil
}

func (l *Local) AddEntry(ctx context.Context, in tracker.EntryInput) (models.SessionEntry, *tracker.Improvement, error) {
	return l.tracker.AddEntry(ctx, in)
}

func (l *Local) DaySummary(_ context.Context, date string) (aggregate.DaySummary, error) {
	if date == "" {
		date = l.tracker.Today()
	}
	return aggregate.SummarizeDay(l.tracker.Snapshot(), date), nil
}

func (l *Local) Performance(_ context.Context, n int) (aggregate.Performance, error) {
	return aggregate.BuildPerformance(l.tracker.Snapshot(), n), nil
}

func (l *Local) ParseBoard(ctx context.Context, text, date string, save bool) (*ingest.Result, error) {
	if !save {
		return l.board.Preview(text, date)
	}
	return l.board.Ingest(ctx, text, date)
}
