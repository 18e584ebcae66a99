// Package importer bulk-loads a directory of exports: board photos already
// transcribed to text (one file per day) and FIT activity files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/wodlog/internal/ingest"
	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/ingest/fitfile"
	"github.com/claude/wodlog/internal/models"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	BoardFiles      int
	FITFiles        int
	EntriesParsed   int
	EntriesInserted int

	Unmapped []string
}

// Importer walks a directory and feeds each file to the matching provider.
type Importer struct {
	board  *board.Provider
	fit    *fitfile.Provider
	loc    *time.Location
	log    *slog.Logger
	dryRun bool
	stats  Stats
	seen   map[string]bool
}

// New creates a new Importer. In dry-run mode files are parsed but nothing
// is stored.
func New(boardProvider *board.Provider, fitProvider *fitfile.Provider, loc *time.Location, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{board: boardProvider, fit: fitProvider, loc: loc, log: log, dryRun: dryRun, seen: map[string]bool{}}
}

// Import processes every .txt and .fit file under dir in lexical order, so
// dated file names are imported oldest first. A file that fails is counted
// and skipped; only errors storing entries abort the run.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &imp.stats, fmt.Errorf("reading %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		switch strings.ToLower(filepath.Ext(f)) {
		case ".txt":
			err = imp.importBoardFile(ctx, f)
		case ".fit":
			err = imp.importFITFile(ctx, f)
		default:
			imp.stats.FilesSkipped++
			continue
		}
		if err != nil {
			return &imp.stats, err
		}
	}
	return &imp.stats, nil
}

// BoardFileDate extracts the session date from a board file name such as
// "2026-03-02.txt" or "2026-03-02_evening.txt".
func BoardFileDate(filename string) (string, error) {
	base := filepath.Base(filename)
	if len(base) < len(models.DateLayout) {
		return "", fmt.Errorf("filename too short: %s", base)
	}
	date := base[:len(models.DateLayout)]
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", fmt.Errorf("no date prefix in %s", base)
	}
	return date, nil
}

func (imp *Importer) importBoardFile(ctx context.Context, path string) error {
	date, err := BoardFileDate(path)
	if err != nil {
		imp.log.Warn("skipping board file", "file", path, "error", err)
		imp.stats.FilesSkipped++
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		imp.log.Warn("read failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	var res *ingest.Result
	if imp.dryRun {
		res, err = imp.board.Preview(string(data), date)
	} else {
		res, err = imp.board.Ingest(ctx, string(data), date)
	}
	if errors.Is(err, board.ErrNoEntries) {
		imp.log.Info("no known exercises on board", "file", path)
		imp.stats.FilesSkipped++
		return nil
	}
	if err != nil {
		return fmt.Errorf("importing %s: %w", filepath.Base(path), err)
	}
	imp.stats.BoardFiles++
	imp.count(res)
	return nil
}

func (imp *Importer) importFITFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		imp.log.Warn("open failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	defer f.Close()

	if imp.dryRun {
		act, err := fitfile.Parse(f, imp.loc)
		if err != nil {
			imp.log.Warn("parse failed", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		imp.stats.FITFiles++
		imp.count(&ingest.Result{EntriesParsed: len(act.Entries), Unmapped: act.Unmapped})
		return nil
	}

	res, err := imp.fit.Ingest(ctx, f)
	if err != nil {
		// Decode failures leave nothing stored; anything after that is a
		// storage problem that later files would hit too.
		if res != nil && res.EntriesParsed > 0 {
			return fmt.Errorf("importing %s: %w", filepath.Base(path), err)
		}
		imp.log.Warn("parse failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	imp.stats.FITFiles++
	imp.count(res)
	return nil
}

func (imp *Importer) count(res *ingest.Result) {
	imp.stats.FilesProcessed++
	imp.stats.EntriesParsed += res.EntriesParsed
	imp.stats.EntriesInserted += res.EntriesInserted
	for _, u := range res.Unmapped {
		if !imp.seen[u] {
			imp.seen[u] = true
			imp.stats.Unmapped = append(imp.stats.Unmapped, u)
		}
	}
}
