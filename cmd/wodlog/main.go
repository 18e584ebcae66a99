package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/wodlog/internal/backup"
	"github.com/claude/wodlog/internal/catalog"
	"github.com/claude/wodlog/internal/config"
	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/ingest/fitfile"
	"github.com/claude/wodlog/internal/logging"
	wodmcp "github.com/claude/wodlog/internal/mcp"
	"github.com/claude/wodlog/internal/server"
	"github.com/claude/wodlog/internal/storage"
	"github.com/claude/wodlog/internal/tracker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	boot := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(os.Stdout, logging.Params{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logCloser.Close()
	log.Info("wodlog starting", "version", Version)

	// Open storage (migrations run on open)
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.Database.DSN(),
	})
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage ready", "driver", cfg.Storage.Driver)

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		log.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	tr, err := tracker.New(ctx, store, cat, cfg.Tuning.Rule(), log)
	if err != nil {
		log.Error("failed to load state", "error", err)
		os.Exit(1)
	}

	// Create providers
	boardProvider := board.NewProvider(tr, log)
	fitProvider := fitfile.NewProvider(tr, time.Local, log)

	// Create server
	srv := server.New(tr, boardProvider, fitProvider, cfg.Auth.APIKey, cfg.Tuning.TopN, log)

	mcpSrv := wodmcp.New(wodmcp.NewLocal(tr, boardProvider), cfg.Tuning.TopN, Version, log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcpSrv))

	// Backups: on-demand when a directory is set, scheduled when a cron
	// expression is set too.
	var scheduler *backup.Scheduler
	if cfg.Backup.Dir != "" {
		scheduler, err = backup.NewScheduler(tr, backup.SchedulerConfig{
			Dir:      cfg.Backup.Dir,
			Schedule: cfg.Backup.Schedule,
			Keep:     cfg.Backup.Keep,
		}, log)
		if err != nil {
			log.Error("invalid backup config", "error", err)
			os.Exit(1)
		}
		srv.SetBackups(scheduler)
		if cfg.Backup.Schedule != "" {
			if err := scheduler.Start(); err != nil {
				log.Error("backup scheduler start failed", "error", err)
				os.Exit(1)
			}
		}
	}

	// Start server on tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if scheduler != nil && cfg.Backup.Schedule != "" {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			log.Error("backup scheduler stop", "error", err)
		}
	}
	log.Info("server stopped")
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path != "" {
		return catalog.LoadFile(cfg.Path)
	}
	return catalog.Load(cfg.Name)
}
