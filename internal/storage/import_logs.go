package storage

import "time"

const defaultImportLogLimit = 50

// Import log statuses.
const (
	ImportStatusSuccess = "success"
	ImportStatusEmpty   = "empty"
	ImportStatusError   = "error"
)

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID              int64     `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Source          string    `json:"source"`
	Status          string    `json:"status"`
	LinesReceived   int       `json:"lines_received"`
	EntriesInserted int       `json:"entries_inserted"`
	Skipped         int       `json:"skipped"`
	DurationMs      *int      `json:"duration_ms"`
	ErrorMessage    *string   `json:"error_message"`
}
