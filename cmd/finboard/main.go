package main

import (
	"context"
	"os"
	"time"

	"finboard/internal/backend"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	"finboard/internal/kv"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/metrics"
	"finboard/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	// Logging level and format come from the environment before config
	// validation so validation failures are logged in the chosen format.
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	collector := metrics.NewCollector()
	store := ledger.New(kv.Observe(res.Backend, func(op, key string, err error) {
		collector.StorageError(op, key)
	}), logger)
	store.Load(ctx)

	svc := services.NewDashboardService(store, services.Options{
		CacheSize: cfg.ViewCacheSize,
		CacheTTL:  cfg.ViewCacheTTL,
		Recorder:  collector,
		Logger:    logger,
	})
	defer svc.Close()

	if cfg.SeedDemo {
		if err := svc.SeedIfEmpty(ctx); err != nil {
			logger.Error("Failed to seed demo data", log.FieldError, err)
		}
	}

	var ready apphttp.ReadyFunc
	if p, ok := res.Backend.(backend.Pinger); ok {
		ready = p.Ping
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Currency:           cfg.Currency,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Metrics:            collector,
		Ready:              ready,
	})

	logger.Info("Starting finboard server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldRevision, svc.Revision())

	err := cli.Serve(ctx, logger, srv, 30*time.Second, func(ctx context.Context) error {
		svc.Start(ctx)
		<-ctx.Done()
		return nil
	})
	if err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		stop()
		os.Exit(1)
	}
}
