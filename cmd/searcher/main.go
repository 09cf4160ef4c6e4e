// Command searcher loads documents into memory and serves the search API.
//
// Usage:
//
//	searcher [-config configs/development.yaml] [file ...]
//
// Documents come from the named files and, when sources.postgres is
// enabled, from the configured table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/server"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "files", flag.NArg())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := indexer.LoadFromConfig(ctx, cfg, source.Files(flag.Args()...))
	if err != nil {
		slog.Error("failed to load documents", "error", err)
		os.Exit(1)
	}
	if err := server.Run(ctx, cfg, engine); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
