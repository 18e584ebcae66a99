package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/wodlog/internal/backup"
	"github.com/claude/wodlog/internal/catalog"
	"github.com/claude/wodlog/internal/config"
	"github.com/claude/wodlog/internal/importer"
	"github.com/claude/wodlog/internal/ingest"
	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/ingest/fitfile"
	"github.com/claude/wodlog/internal/storage"
	"github.com/claude/wodlog/internal/tracker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dirPath := flag.String("path", "", "directory of board .txt and .fit files")
	backupPath := flag.String("backup", "", "backup file to restore (replaces all state)")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to the store")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*dirPath == "") == (*backupPath == "") {
		fmt.Fprintf(os.Stderr, "Usage: wodlog-import -config config.yaml (-path /path/to/exports | -backup wodlog-backup.json) [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *dirPath != "" {
		info, err := os.Stat(*dirPath)
		if err != nil || !info.IsDir() {
			log.Error("import path does not exist or is not a directory", "path", *dirPath)
			os.Exit(1)
		}
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: nothing will be written to the store")
	}

	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.Database.DSN(),
	})
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage ready", "driver", cfg.Storage.Driver)

	var cat *catalog.Catalog
	if cfg.Catalog.Path != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.Path)
	} else {
		cat, err = catalog.Load(cfg.Catalog.Name)
	}
	if err != nil {
		log.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	tr, err := tracker.New(ctx, store, cat, cfg.Tuning.Rule(), log)
	if err != nil {
		log.Error("failed to load state", "error", err)
		os.Exit(1)
	}

	if *backupPath != "" {
		if err := restore(ctx, tr, *backupPath, *dryRun, log); err != nil {
			log.Error("restore failed", "error", err)
			os.Exit(1)
		}
		log.Info("restore complete")
		return
	}

	// Run import
	imp := importer.New(board.NewProvider(tr, log), fitfile.NewProvider(tr, time.Local, log), time.Local, log, *dryRun)
	stats, err := imp.Import(ctx, *dirPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func restore(ctx context.Context, tr *tracker.Tracker, path string, dryRun bool, log *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}
	if dryRun {
		state, err := backup.Decode(data)
		if err != nil {
			return err
		}
		log.Info("backup contents", "entries", len(state.Entries), "maxes", len(state.OneRepMax), "reservations", len(state.Reservations))
		return nil
	}

	started := time.Now()
	res := &ingest.Result{Source: ingest.SourceBackup}
	state, err := backup.Import(ctx, tr, data)
	if err == nil {
		res.EntriesParsed = len(state.Entries)
		res.EntriesInserted = len(state.Entries)
	}
	ingest.Record(tr, res, err, started)
	if err != nil {
		return err
	}
	log.Info("backup restored", "entries", len(state.Entries), "maxes", len(state.OneRepMax), "reservations", len(state.Reservations))
	return nil
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"board_files", stats.BoardFiles,
		"fit_files", stats.FITFiles,
		"entries_parsed", stats.EntriesParsed,
		"entries_inserted", stats.EntriesInserted,
	)
	if len(stats.Unmapped) > 0 {
		log.Info("unmapped FIT sports", "sports", stats.Unmapped)
	}
}
