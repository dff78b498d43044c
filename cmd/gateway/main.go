package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericksa/contractreview/internal/archive"
	"github.com/ericksa/contractreview/internal/audit"
	"github.com/ericksa/contractreview/internal/config"
	"github.com/ericksa/contractreview/internal/knowledge"
	"github.com/ericksa/contractreview/internal/logging"
	"github.com/ericksa/contractreview/internal/workers"
	"github.com/ericksa/contractreview/pkg/mcp"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: search ., ~/.contractreview, XDG config dir)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal("Failed to load config", "err", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal("Invalid config", "err", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Prefix: "gateway"})
	if err != nil {
		logging.Fatal("Invalid log settings", "err", err)
	}
	logging.SetDefault(logger)

	kb, err := knowledge.Load(cfg.Knowledge.Dir)
	if err != nil {
		logger.Fatal("Failed to load knowledge base", "dir", cfg.Knowledge.Dir, "err", err)
	}

	aud := audit.Nop()
	if cfg.Audit.Enabled {
		aud, err = audit.Open(cfg.Audit.Driver, cfg.Audit.DSN, logger)
		if err != nil {
			logger.Fatal("Failed to open audit log", "driver", cfg.Audit.Driver, "err", err)
		}
	}
	defer aud.Close()

	// Report archive is optional; a bad endpoint only disables it.
	var store workers.ReportStore
	if cfg.Archive.Enabled {
		a, err := archive.New(cfg.Archive)
		if err != nil {
			logger.Warn("Report archive disabled", "err", err)
		} else {
			store = a
		}
	}

	handler := mcp.NewHandler(kb, mcp.Options{
		Version: version,
		Logger:  logger,
		Auditor: aud,
		Archive: store,
	})

	gw := &gateway{handler: handler, audit: aud, logger: logger}
	router := newRouter(cfg, gw)

	read, write, idle := cfg.Server.Timeouts()
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
		ErrorLog:     logger.StdLogger(),
	}

	go func() {
		logger.Info("Starting contract review gateway",
			"addr", cfg.Server.Addr,
			"version", version,
			"tools", len(handler.Tools()),
			"audit", aud.Enabled(),
			"archive", store != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", "err", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "err", err)
		return
	}
	logger.Info("Server stopped")
}
