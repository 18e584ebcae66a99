// Package ingest holds what the board and FIT importers share: the result
// of a run and how it is recorded.
package ingest

import (
	"context"
	"time"

	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/observability"
	"github.com/claude/wodlog/internal/storage"
)

// Sources recorded in the import log.
const (
	SourceBoard  = "board"
	SourceFIT    = "fit"
	SourceBackup = "backup"
)

// Result holds the outcome of an ingest operation.
type Result struct {
	Source          string                `json:"source"`
	LinesReceived   int                   `json:"lines_received"`
	EntriesParsed   int                   `json:"entries_parsed"`
	EntriesInserted int                   `json:"entries_inserted"`
	Skipped         int                   `json:"skipped"`
	Unmapped        []string              `json:"unmapped,omitempty"`
	Entries         []models.SessionEntry `json:"entries,omitempty"`
	Message         string                `json:"message,omitempty"`
}

// Recorder stores import log rows.
type Recorder interface {
	RecordImport(ctx context.Context, l storage.ImportLog)
}

// Record writes an import log row and the ingest counters for one run.
// It uses its own short-lived context so a cancelled request still gets logged.
func Record(rec Recorder, res *Result, importErr error, started time.Time) {
	status := storage.ImportStatusSuccess
	var errMsg *string
	switch {
	case importErr != nil:
		status = storage.ImportStatusError
		msg := importErr.Error()
		errMsg = &msg
	case res.EntriesInserted == 0:
		status = storage.ImportStatusEmpty
	}
	durationMs := int(time.Since(started).Milliseconds())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec.RecordImport(ctx, storage.ImportLog{
		Source:          res.Source,
		Status:          status,
		LinesReceived:   res.LinesReceived,
		EntriesInserted: res.EntriesInserted,
		Skipped:         res.Skipped,
		DurationMs:      &durationMs,
		ErrorMessage:    errMsg,
	})
	observability.RecordIngest(res.Source, res.EntriesParsed, res.Skipped)
}
