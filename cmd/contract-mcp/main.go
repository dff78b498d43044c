// Command contract-mcp serves the contract review tools over MCP on stdin and
// stdout, for desktop assistants that launch their tool servers as
// subprocesses. Logs go to stderr.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

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
	configPath := flag.String("config", "", "path to config.yaml")
	noAudit := flag.Bool("no-audit", false, "do not record tool calls")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal("Failed to load config", "err", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal("Invalid config", "err", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Prefix: "contract-mcp",
		Writer: os.Stderr,
	})
	if err != nil {
		logging.Fatal("Invalid log settings", "err", err)
	}
	logging.SetDefault(logger)

	kb, err := knowledge.Load(cfg.Knowledge.Dir)
	if err != nil {
		logger.Fatal("Failed to load knowledge base", "dir", cfg.Knowledge.Dir, "err", err)
	}

	aud := audit.Nop()
	if cfg.Audit.Enabled && !*noAudit {
		if aud, err = audit.Open(cfg.Audit.Driver, cfg.Audit.DSN, logger); err != nil {
			logger.Warn("Audit log disabled", "err", err)
			aud = audit.Nop()
		}
	}
	defer aud.Close()

	var store workers.ReportStore
	if cfg.Archive.Enabled {
		if a, err := archive.New(cfg.Archive); err != nil {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Serving MCP on stdio", "version", version, "tools", len(handler.Tools()))
	if err := handler.RunStdio(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP session ended", "err", err)
		os.Exit(1)
	}
}
