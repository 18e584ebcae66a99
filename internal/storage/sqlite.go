package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

// SQLite is the single-file backend.
type SQLite struct {
	db   *sql.DB
	lock *fileLock
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
// The tracker rewrites whole documents, so only one process may hold the
// file: a second OpenSQLite on the same path fails with ErrLocked until
// Close.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	lock, err := lockFile(path)
	if err != nil {
		return nil, err
	}
	if err := runSQLiteMigrations(path); err != nil {
		lock.release()
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		lock.release()
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// Serialise writers; sqlite allows one at a time.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		lock.release()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	return &SQLite{db: db, lock: lock}, nil
}

func runSQLiteMigrations(path string) error {
	src, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the database and releases the process lock.
func (s *SQLite) Close() error {
	err := s.db.Close()
	if lerr := s.lock.release(); err == nil {
		err = lerr
	}
	return err
}

// Get returns the document stored under key.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM documents WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", key, err)
	}
	return []byte(value), nil
}

const sqliteUpsert = `INSERT INTO documents (key, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

// Put stores doc under key, replacing any previous value.
func (s *SQLite) Put(ctx context.Context, key string, doc []byte) error {
	if _, err := s.db.ExecContext(ctx, sqliteUpsert, key, string(doc)); err != nil {
		return fmt.Errorf("writing document %s: %w", key, err)
	}
	return nil
}

// PutAll stores every document in one transaction.
func (s *SQLite) PutAll(ctx context.Context, docs map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for key, doc := range docs {
		if _, err := tx.ExecContext(ctx, sqliteUpsert, key, string(doc)); err != nil {
			return fmt.Errorf("writing document %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing documents: %w", err)
	}
	return nil
}

// InsertImportLog records an import run and returns its ID.
func (s *SQLite) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO import_logs (source, status, lines_received, entries_inserted, skipped, duration_ms, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.Source, log.Status, log.LinesReceived, log.EntriesInserted, log.Skipped,
		log.DurationMs, log.ErrorMessage,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return res.LastInsertId()
}

// QueryImportLogs returns the most recent import runs.
func (s *SQLite) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = defaultImportLogLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, status, lines_received, entries_inserted, skipped, duration_ms, error_message
		 FROM import_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var (
			l          ImportLog
			durationMs sql.NullInt64
			errMsg     sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Source, &l.Status,
			&l.LinesReceived, &l.EntriesInserted, &l.Skipped, &durationMs, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		if durationMs.Valid {
			d := int(durationMs.Int64)
			l.DurationMs = &d
		}
		if errMsg.Valid {
			l.ErrorMessage = &errMsg.String
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
