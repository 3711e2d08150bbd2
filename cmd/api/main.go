package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-api/internal/config"
	"github.com/georgemunganga/storefront-api/internal/events"
	"github.com/georgemunganga/storefront-api/internal/health"
	"github.com/georgemunganga/storefront-api/internal/modules/catalog"
	"github.com/georgemunganga/storefront-api/internal/obs"
	"github.com/georgemunganga/storefront-api/internal/server"
)

var version = "dev"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := obs.SetupTracing(ctx, cfg.OTLPEndpoint, version)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := obs.NewMetrics(reg)

	// ── Stores ──────────────────────────────────────────────
	stores, err := server.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close(context.Background()) }()

	var checks []health.Check

	// ── Product details cache ───────────────────────────────
	var cache catalog.DetailsCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		cache = catalog.NewRedisDetailsCache(rdb, cfg.ProductCacheTTL)
		checks = append(checks, health.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("product details cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	// ── Events ──────────────────────────────────────────────
	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		checks = append(checks, health.Check{Name: "kafka", Probe: events.KafkaReady(cfg.KafkaBrokers)})
		logger.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		publisher = events.NewLogPublisher(logger.Named("events"))
	}
	defer func() { _ = publisher.Close() }()

	handler := server.New(server.Options{
		Config:    cfg,
		Version:   version,
		Stores:    stores,
		Cache:     cache,
		Publisher: publisher,
		Checks:    checks,
		Logger:    logger,
		Metrics:   metrics,
		Gatherer:  reg,
	})

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront API server starting", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
