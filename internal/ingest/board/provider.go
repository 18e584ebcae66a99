package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/wodlog/internal/ingest"
	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/tracker"
)

// Provider parses board text and appends the matched entries to the log.
type Provider struct {
	tracker *tracker.Tracker
	log     *slog.Logger
}

// NewProvider creates a board ingest provider.
func NewProvider(t *tracker.Tracker, log *slog.Logger) *Provider {
	return &Provider{tracker: t, log: log}
}

// Preview parses text against the current catalog and maxes without
// storing anything. An empty date means today.
func (p *Provider) Preview(text, date string) (*ingest.Result, error) {
	if date == "" {
		date = p.tracker.Today()
	}
	parser := NewParser(p.tracker.Catalog(), p.tracker.Maxes())
	b, err := parser.ParseBoard(text, date)
	res := &ingest.Result{
		Source:        ingest.SourceBoard,
		LinesReceived: b.Lines,
		EntriesParsed: len(b.Entries),
		Skipped:       b.Skipped,
		Entries:       b.Entries,
	}
	return res, err
}

// Ingest parses text and stores every matched entry in one write.
func (p *Provider) Ingest(ctx context.Context, text, date string) (res *ingest.Result, err error) {
	started := time.Now()
	res, err = p.Preview(text, date)
	defer func() { ingest.Record(p.tracker, res, err, started) }()
	if err != nil {
		if errors.Is(err, ErrNoEntries) {
			res.Message = "the board was read but no known exercise was found"
		}
		return res, err
	}

	inputs := make([]tracker.EntryInput, len(res.Entries))
	for i, e := range res.Entries {
		inputs[i] = InputFromEntry(e)
	}
	added, skipped, err := p.tracker.ImportEntries(ctx, inputs, ingest.SourceBoard)
	res.Entries = added
	res.EntriesInserted = len(added)
	res.Skipped += skipped
	if err != nil {
		return res, fmt.Errorf("storing board entries: %w", err)
	}
	res.Message = fmt.Sprintf("%d blocks added from the board", len(added))
	p.log.Info("board ingested", "date", date, "lines", res.LinesReceived, "added", len(added), "skipped", res.Skipped)
	return res, nil
}

// InputFromEntry converts a parsed entry back to tracker input so the
// tracker derives category, load and percent of max itself.
func InputFromEntry(e models.SessionEntry) tracker.EntryInput {
	return tracker.EntryInput{
		Date:        e.Date,
		Part:        e.Part,
		Format:      e.Format,
		ExerciseID:  e.ExerciseID,
		Sets:        e.Sets,
		Reps:        e.Reps,
		WeightKg:    e.WeightKg,
		ElapsedTime: e.ElapsedTime,
		DistanceKm:  e.DistanceKm,
	}
}
