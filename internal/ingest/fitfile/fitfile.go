// Package fitfile imports FIT activity files (watch and rower exports) as
// metcon entries in the session log.
package fitfile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/tormoder/fit"

	"github.com/claude/wodlog/internal/aggregate"
	"github.com/claude/wodlog/internal/ingest"
	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/tracker"
)

// sportExercises maps FIT sports to catalog exercises. Sessions of any
// other sport are skipped.
var sportExercises = map[fit.Sport]string{
	fit.SportRunning: "Running",
	fit.SportRowing:  "Rowing",
}

// Activity is the parsed content of one FIT file.
type Activity struct {
	Sessions int
	Entries  []models.SessionEntry
	Unmapped []string
}

// Parse decodes a FIT activity file. Each session with a mapped sport
// becomes one entry dated by its start time in loc.
func Parse(r io.Reader, loc *time.Location) (Activity, error) {
	file, err := fit.Decode(r)
	if err != nil {
		return Activity{}, fmt.Errorf("decoding FIT file: %w", err)
	}
	act, err := file.Activity()
	if err != nil {
		return Activity{}, fmt.Errorf("reading FIT activity: %w", err)
	}

	out := Activity{Sessions: len(act.Sessions)}
	for _, s := range act.Sessions {
		e, ok := entryFromSession(s, loc)
		if !ok {
			out.Unmapped = append(out.Unmapped, fmt.Sprint(s.Sport))
			continue
		}
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}

func entryFromSession(s *fit.SessionMsg, loc *time.Location) (models.SessionEntry, bool) {
	exercise, ok := sportExercises[s.Sport]
	// Unset FIT timestamps decode to the 1989-12-31 epoch.
	if !ok || s.StartTime.Year() < 1990 {
		return models.SessionEntry{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	e := models.SessionEntry{
		Date:       s.StartTime.In(loc).Format(models.DateLayout),
		ExerciseID: exercise,
		Category:   models.CategoryMetcon,
		Sets:       1,
		Reps:       1,
	}
	if secs := s.GetTotalElapsedTimeScaled(); !math.IsNaN(secs) && secs > 0 {
		e.ElapsedTime = aggregate.FormatElapsed(int(math.Round(secs)))
	}
	if metres := s.GetTotalDistanceScaled(); !math.IsNaN(metres) && metres > 0 {
		e.DistanceKm = math.Round(metres) / 1000
	}
	return e, true
}

// Provider stores FIT activities in the session log.
type Provider struct {
	tracker *tracker.Tracker
	loc     *time.Location
	log     *slog.Logger
}

// NewProvider creates a FIT ingest provider. Session dates use loc.
func NewProvider(t *tracker.Tracker, loc *time.Location, log *slog.Logger) *Provider {
	return &Provider{tracker: t, loc: loc, log: log}
}

// Ingest decodes r and appends one entry per mapped session.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (res *ingest.Result, err error) {
	started := time.Now()
	res = &ingest.Result{Source: ingest.SourceFIT}
	defer func() { ingest.Record(p.tracker, res, err, started) }()

	act, err := Parse(r, p.loc)
	if err != nil {
		return res, err
	}
	res.LinesReceived = act.Sessions
	res.EntriesParsed = len(act.Entries)
	res.Skipped = len(act.Unmapped)
	res.Unmapped = act.Unmapped
	if len(act.Entries) == 0 {
		res.Message = "no supported sessions in the activity"
		return res, nil
	}

	inputs := make([]tracker.EntryInput, len(act.Entries))
	for i, e := range act.Entries {
		inputs[i] = tracker.EntryInput{
			Date:        e.Date,
			ExerciseID:  e.ExerciseID,
			Format:      e.Format,
			Sets:        e.Sets,
			Reps:        e.Reps,
			ElapsedTime: e.ElapsedTime,
			DistanceKm:  e.DistanceKm,
		}
	}
	added, skipped, err := p.tracker.ImportEntries(ctx, inputs, ingest.SourceFIT)
	res.Entries = added
	res.EntriesInserted = len(added)
	res.Skipped += skipped
	if err != nil {
		return res, fmt.Errorf("storing FIT entries: %w", err)
	}
	p.log.Info("FIT activity ingested", "sessions", act.Sessions, "added", len(added), "unmapped", len(act.Unmapped))
	return res, nil
}
