// Package upload pushes a local directory of board text and FIT files to a
// remote wodlog server, skipping files that were already sent.
package upload

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/wodlog/internal/importer"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	EntriesParsed   int
	EntriesInserted int
}

// Uploader walks a directory and POSTs each new file to the server.
type Uploader struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{client: client, state: state, dir: dir, dryRun: dryRun, log: log}
}

// Run sends every unsent .txt and .fit file in lexical order. A file the
// server rejects is counted and left unmarked so the next run retries it.
func (u *Uploader) Run() (*Stats, error) {
	var files []string
	err := filepath.WalkDir(u.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".fit":
			if !d.IsDir() {
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		return &u.stats, fmt.Errorf("reading %s: %w", u.dir, err)
	}
	sort.Strings(files)

	for _, f := range files {
		u.stats.FilesTotal++
		if err := u.send(f); err != nil {
			u.log.Warn("upload failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}
	return &u.stats, nil
}

func (u *Uploader) send(path string) error {
	relPath, _ := filepath.Rel(u.dir, path)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	hash := hashBytes(data)

	sent, err := u.state.IsSent(relPath, hash)
	if err != nil {
		return fmt.Errorf("checking state: %w", err)
	}
	if sent {
		u.stats.FilesSkipped++
		return nil
	}

	isBoard := strings.EqualFold(filepath.Ext(path), ".txt")
	var date string
	if isBoard {
		if date, err = importer.BoardFileDate(path); err != nil {
			u.log.Info("skipping undated board file", "file", relPath)
			u.stats.FilesSkipped++
			return nil
		}
	}

	if u.dryRun {
		u.log.Info("would upload", "file", relPath, "bytes", len(data))
		u.stats.FilesUploaded++
		return nil
	}

	var resp ingestResponse
	if isBoard {
		resp, err = u.client.SendBoard(string(data), date)
	} else {
		resp, err = u.client.SendFIT(data)
	}
	if err != nil {
		return err
	}

	u.stats.FilesUploaded++
	u.stats.EntriesParsed += resp.EntriesParsed
	u.stats.EntriesInserted += resp.EntriesInserted
	u.log.Info("uploaded", "file", relPath, "entries", resp.EntriesInserted)
	if err := u.state.MarkSent(relPath, hash, resp.EntriesInserted); err != nil {
		return fmt.Errorf("recording state: %w", err)
	}
	return nil
}
