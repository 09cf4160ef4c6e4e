// Package server assembles the search service: the engine behind the HTTP
// API, the result cache, query analytics, health checks and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/output"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wosp/pkg/redis"
)

// Components are the collaborators wired into the HTTP handler. Cache and
// Collector may be nil.
type Components struct {
	Engine     *indexer.Engine
	Cache      *cache.QueryCache
	Collector  *analytics.Collector
	Aggregator *analytics.Aggregator
	Checker    *health.Checker
	Metrics    *metrics.Metrics
	Limiter    *middleware.Limiter
}

// NewHandler builds the routed, middleware-wrapped API.
func NewHandler(cfg *config.Config, c Components) (http.Handler, error) {
	outOpts, err := output.OptionsFromConfig(cfg.Output)
	if err != nil {
		return nil, err
	}
	h := handler.New(c.Engine, c.Cache, c.Collector, handler.Config{
		Output:        outOpts,
		MaxConcurrent: cfg.Search.MaxConcurrentQueries,
		Trace:         cfg.Tracing.Enabled,
	})

	mux := http.NewServeMux()
	h.Routes(mux)
	if c.Aggregator != nil {
		mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(c.Aggregator).Stats)
	}
	if c.Checker != nil {
		mux.HandleFunc("GET /health/live", c.Checker.LiveHandler())
		mux.HandleFunc("GET /health/ready", c.Checker.ReadyHandler())
	}

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins)),
	}
	if c.Limiter != nil {
		mws = append(mws, middleware.RateLimit(c.Limiter))
	}
	if c.Metrics != nil {
		mws = append(mws, middleware.Metrics(c.Metrics))
	}
	if cfg.Server.WriteTimeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Server.WriteTimeout))
	}
	return middleware.Chain(mux, mws...), nil
}

// Run serves engine until ctx is cancelled, then shuts down gracefully.
// Redis and Kafka are optional: when they are disabled or unreachable the
// service falls back to an in-process cache and in-process analytics.
func Run(ctx context.Context, cfg *config.Config, engine *indexer.Engine) error {
	log := logger.WithComponent("search-server")

	m := metrics.New(prometheus.DefaultRegisterer)
	engine.WithMetrics(m)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	checker := health.NewChecker()
	checker.Register("corpus", func(ctx context.Context) health.ComponentHealth {
		s := engine.Stats()
		if s.Documents == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no documents loaded"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d words", s.Documents, s.Words),
		}
	})

	var store cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, using in-process cache", "error", err)
		} else {
			defer redisClient.Close()
			store = redisClient
			checker.Register("redis", health.PingCheck(redisClient.Ping, health.StatusDegraded))
			log.Info("redis cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	queryCache := cache.New(store, cfg.Redis.CacheTTL, m)

	aggregator := analytics.NewAggregator()
	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		defer producer.Close()
		publisher = producer
		log.Info("publishing query events", "topic", cfg.Kafka.Topics.QueryEvents)
	}
	collector := analytics.NewCollector(publisher, analytics.CollectorConfig{}, m, aggregator)
	collector.Start(ctx)
	defer collector.Close()

	var limiter *middleware.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = middleware.NewLimiter(cfg.Server.RateLimit, time.Minute)
		go limiter.Cleanup(ctx, 5*time.Minute)
	}

	chain, err := NewHandler(cfg, Components{
		Engine:     engine,
		Cache:      queryCache,
		Collector:  collector,
		Aggregator: aggregator,
		Checker:    checker,
		Metrics:    m,
		Limiter:    limiter,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	}()

	log.Info("search service listening", "addr", server.Addr, "fingerprint", engine.Fingerprint())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving search api: %w", err)
	}
	log.Info("search service stopped")
	return nil
}
