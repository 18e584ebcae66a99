package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
)

//go:embed migrations
var migrationsFS embed.FS

// ErrNotFound is returned by Get when no document is stored under the key.
var ErrNotFound = errors.New("document not found")

// ErrLocked is returned by OpenSQLite when another process holds the database.
var ErrLocked = errors.New("database is in use by another process")

// Document keys.
const (
	KeyProfile      = "profile"
	KeyOneRepMax    = "one_rep_max"
	KeyHistory      = "one_rep_max_history"
	KeyEntries      = "session_entries"
	KeyDayResults   = "day_results"
	KeyReservations = "reservations"
	KeyAttendance   = "attendance"
	KeyBackupMeta   = "backup_meta"
)

// Keys lists every document key in load order.
var Keys = []string{
	KeyProfile,
	KeyOneRepMax,
	KeyHistory,
	KeyEntries,
	KeyDayResults,
	KeyReservations,
	KeyAttendance,
	KeyBackupMeta,
}

// Store persists JSON documents by key and records import runs.
type Store interface {
	// Get returns the raw JSON stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, doc []byte) error
	// PutAll writes every document in a single transaction.
	PutAll(ctx context.Context, docs map[string][]byte) error

	InsertImportLog(ctx context.Context, log ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error)

	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver string // "sqlite" or "postgres"
	Path   string // sqlite database file
	DSN    string // postgres connection string
}

// Open opens the configured backend and applies pending migrations.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, opts.Path)
	case "postgres":
		if err := RunMigrations(opts.DSN); err != nil {
			return nil, err
		}
		return New(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
