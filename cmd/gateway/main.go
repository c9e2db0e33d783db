// cmd/gateway/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	complexquery "telecom-query-gateway/internal/agents/complex-query"
	fastquery "telecom-query-gateway/internal/agents/fast-query"
	"telecom-query-gateway/internal/common/config"
	"telecom-query-gateway/internal/common/logger"
	"telecom-query-gateway/internal/common/observability"
	"telecom-query-gateway/internal/dataservice"
	"telecom-query-gateway/internal/monitoring"
	"telecom-query-gateway/internal/routing"
	"telecom-query-gateway/internal/server"
	"telecom-query-gateway/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting query gateway...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Load entity registry ---
	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("entity registry load failed", zap.Error(err), zap.String("path", cfg.Registry.Path))
	}
	zapLog.Info("Entity registry loaded",
		zap.Int("entities", len(reg.Entities)),
		zap.String("version", reg.Version),
	)

	// --- Connect data service tool channel with retry ---
	var (
		svc      *dataservice.MCPService
		svcClose func() error
	)
	err = retryWithBackoff(func() error {
		var err error
		svc, svcClose, err = dataservice.Connect(ctx, cfg.DataService, log)
		return err
	}, 10, 2*time.Second, zapLog, "Data service connection")

	if err != nil {
		zapLog.Fatal("data service failed after retries", zap.Error(err))
	}
	defer svcClose()
	zapLog.Info("Data service connected successfully", zap.String("transport", cfg.DataService.Transport))

	// --- Monitoring sink ---
	var sink monitoring.Sink = monitoring.NopSink{}
	if cfg.Monitoring.Enabled {
		if cfg.Monitoring.File != "" {
			fileSink, err := monitoring.NewFileSink(cfg.Monitoring.File, log)
			if err != nil {
				zapLog.Fatal("metrics sink failed", zap.Error(err), zap.String("file", cfg.Monitoring.File))
			}
			defer fileSink.Close()
			sink = fileSink
		} else {
			sink = monitoring.NewMemorySink()
		}
	}

	// --- Path handlers ---
	fastHandler := fastquery.NewHandler(fastquery.NewConfig(cfg.FastPath), reg, svc, log)

	slowConfig := complexquery.NewConfig(cfg.SlowPath)
	pipeline := complexquery.NewPipeline(reg, slowConfig.MaxIterations, cfg.FastPath.DefaultWindowDays, log)
	slowHandler := complexquery.NewHandler(slowConfig, svc, pipeline, log)

	// --- Router ---
	classifier := routing.NewClassifier(reg, routing.DefaultSignalPatterns())
	router := routing.NewRouter(classifier, fastHandler, slowHandler, sink, log)

	if cfg.Cache.Enabled {
		cache := routing.NewClassificationCache(cfg.Cache, log)
		defer cache.Close()
		router = router.WithCache(cache)
		zapLog.Info("Classification cache enabled", zap.String("address", cfg.Cache.Address))
	}

	// --- HTTP Server ---
	srv := server.New(cfg.Server, router, obs, log)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received, stopping gateway...", zap.String("signal", sig.String()))
	case err := <-errCh:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Query gateway stopped gracefully")
}
