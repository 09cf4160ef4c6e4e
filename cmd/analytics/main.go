// Command analytics aggregates the query events that search services
// publish to Kafka and serves the totals at GET /api/v1/analytics.
//
// With analytics.snapshots enabled the totals are written to PostgreSQL
// periodically and restored on start.
//
// Usage:
//
//	analytics [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Kafka.Enabled {
		fmt.Fprintln(os.Stderr, "the analytics service needs kafka.enabled")
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := analytics.NewAggregator()
	checker := health.NewChecker()

	var snapshotsDone <-chan struct{}
	if cfg.Analytics.Snapshots {
		db, err := postgres.New(ctx, cfg.Postgres, 5)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		checker.Register("postgres", health.PingCheck(db.Ping, health.StatusDown))

		store := aggregator.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare snapshot table", "error", err)
			os.Exit(1)
		}
		snap, err := store.LatestSnapshot(ctx)
		if err != nil {
			slog.Warn("could not load the latest snapshot, starting from zero", "error", err)
		} else if snap != nil {
			if err := agg.Restore(*snap); err != nil {
				slog.Warn("snapshot not restored", "error", err)
			} else {
				slog.Info("analytics restored from snapshot", "total_queries", snap.TotalQueries)
			}
		}
		snapshotsDone = store.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents, agg.HandleMessage())
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := consumer.Start(ctx); err != nil {
			slog.Error("consumer error", "error", err)
		}
	}()
	slog.Info("consuming query events", "topic", cfg.Kafka.Topics.QueryEvents, "group", cfg.Kafka.ConsumerGroup)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(agg).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      middleware.Chain(mux, middleware.RequestID, middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins))),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	<-consumerDone
	if snapshotsDone != nil {
		<-snapshotsDone
	}
	slog.Info("analytics service stopped")
}
