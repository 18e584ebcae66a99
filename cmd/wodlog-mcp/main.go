// Command wodlog-mcp serves the wodlog MCP tools over stdio. With -server it
// proxies every tool to a running wodlog server over the REST API, so the
// server stays the only writer. Without it the binary opens the store
// itself; a SQLite file already held by another process is refused.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/wodlog/internal/catalog"
	"github.com/claude/wodlog/internal/config"
	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/logging"
	wodmcp "github.com/claude/wodlog/internal/mcp"
	"github.com/claude/wodlog/internal/storage"
	"github.com/claude/wodlog/internal/tracker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	serverURL := flag.String("server", "", "wodlog server URL to proxy to (e.g. https://wodlog.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("WODLOG_API_KEY"), "API key for the server (default $WODLOG_API_KEY)")
	topN := flag.Int("top", 0, "ranking length in remote mode (0 = server default)")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr.
	if *serverURL != "" {
		log := slog.New(slog.NewTextHandler(os.Stderr, nil))
		s := wodmcp.New(wodmcp.NewHTTPClient(*serverURL, *apiKey), *topN, Version, log)
		log.Info("wodlog MCP proxy on stdio", "version", Version, "server", *serverURL)
		if err := mcpserver.ServeStdio(s); err != nil {
			log.Error("stdio server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	boot := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log, logCloser := logging.New(os.Stderr, logging.Params{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logCloser.Close()

	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.Database.DSN(),
	})
	if err != nil {
		log.Error("failed to open storage; use -server when a wodlog server owns the database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

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

	s := wodmcp.New(wodmcp.NewLocal(tr, board.NewProvider(tr, log)), cfg.Tuning.TopN, Version, log)
	log.Info("wodlog MCP server on stdio", "version", Version)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
