package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/claude/wodlog/internal/models"
	"github.com/claude/wodlog/internal/observability"
)

const (
	filePrefix = "wodlog_backup_"
	fileLayout = "20060102-150405"
)

// Source provides the state to snapshot and records completed exports.
type Source interface {
	Snapshot() models.State
	MarkBackup(ctx context.Context, at time.Time) error
}

// SchedulerConfig controls scheduled snapshots.
type SchedulerConfig struct {
	Dir      string
	Schedule string // standard 5-field cron expression or descriptor such as "@daily"
	Keep     int    // newest files kept after each run; 0 keeps all
}

// Scheduler writes a backup document into Dir on a cron schedule.
type Scheduler struct {
	src  Source
	cfg  SchedulerConfig
	log  *slog.Logger
	now  func() time.Time
	cron *cron.Cron
}

// NewScheduler validates cfg.Schedule and returns a stopped scheduler.
// An empty schedule gives a scheduler that only takes snapshots on demand.
func NewScheduler(src Source, cfg SchedulerConfig, log *slog.Logger) (*Scheduler, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup dir is required")
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("parsing backup schedule %q: %w", cfg.Schedule, err)
		}
	}
	return &Scheduler{
		src:  src,
		cfg:  cfg,
		log:  log,
		now:  time.Now,
		cron: cron.New(),
	}, nil
}

// Start registers the snapshot job and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cfg.Schedule == "" {
		return fmt.Errorf("no backup schedule configured")
	}
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.log.Error("scheduled backup failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling backup: %w", err)
	}
	s.cron.Start()
	s.log.Info("backup scheduler started", "schedule", s.cfg.Schedule, "dir", s.cfg.Dir, "keep", s.cfg.Keep)
	return nil
}

// Stop halts the cron loop and waits for a running snapshot to finish or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce writes one snapshot, prunes old files and records the export.
// It returns the path of the written file.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	at := s.now()
	path, err := s.write(at)
	observability.RecordBackup(at, err)
	if err != nil {
		return "", err
	}

	if err := s.prune(); err != nil {
		s.log.Warn("pruning backups", "dir", s.cfg.Dir, "error", err)
	}
	if err := s.src.MarkBackup(ctx, at); err != nil {
		return path, err
	}
	s.log.Info("backup written", "path", path)
	return path, nil
}

func (s *Scheduler) write(at time.Time) (string, error) {
	data, err := Encode(s.src.Snapshot(), at)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	path := filepath.Join(s.cfg.Dir, FileName(at))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming backup: %w", err)
	}
	return path, nil
}

// prune removes the oldest snapshots beyond cfg.Keep. Timestamps in the
// file name sort lexically.
func (s *Scheduler) prune() error {
	if s.cfg.Keep <= 0 {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(s.cfg.Dir, filePrefix+"*.json"))
	if err != nil {
		return err
	}
	if len(files) <= s.cfg.Keep {
		return nil
	}
	sort.Strings(files)
	for _, f := range files[:len(files)-s.cfg.Keep] {
		if err := os.Remove(f); err != nil {
			return err
		}
		s.log.Debug("backup pruned", "path", f)
	}
	return nil
}

// FileName returns the snapshot file name for at, in local time.
func FileName(at time.Time) string {
	return filePrefix + at.Format(fileLayout) + ".json"
}
