// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fourget-bridge/internal/common/camunda"
	"fourget-bridge/internal/common/config"
	"fourget-bridge/internal/common/database"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/observability"
	"fourget-bridge/internal/common/sidecar"
	"fourget-bridge/pkg/registry"
	"fourget-bridge/pkg/results"

	ef "fourget-bridge/internal/workers/search/engine-filters"
	hb "fourget-bridge/internal/workers/search/fourget-html-bridge"
	fs "fourget-bridge/internal/workers/search/fourget-search"
	sh "fourget-bridge/internal/workers/search/sidecar-health"

	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("Starting worker manager...", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	log.Info("Zeebe client connected successfully", nil)

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		log.Info("Redis connected successfully", nil)
	} else {
		log.Info("Redis disabled, engine filters are not cached", nil)
	}

	// --- Sidecar, manifest and pipeline ---
	sidecarClient := sidecar.NewClient(cfg.Sidecar, log, sidecar.WithObservability(obs))
	filterCache := sidecar.NewFilterCache(sidecarClient, redis, time.Duration(cfg.Sidecar.FiltersTTL)*time.Second, log)

	manifest, err := registry.LoadManifest(cfg.Manifest.Path)
	if err != nil {
		log.Warn("capability manifest not loaded, engines are not checked", map[string]interface{}{
			"path":  cfg.Manifest.Path,
			"error": err.Error(),
		})
		manifest = nil
	} else {
		log.Info("capability manifest loaded", map[string]interface{}{
			"path":    cfg.Manifest.Path,
			"engines": len(manifest),
		})
	}

	pipeline, err := newPipeline(cfg.Pipeline)
	if err != nil {
		zapLog.Fatal("pipeline config invalid", zap.Error(err))
	}

	// --- Workers ---
	var workers []*camunda.Worker
	start := func(taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler) {
		if w := camunda.StartWorker(zeebe.GetClient(), taskType, wcfg, handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}

	searchCfg := config.GetWorkerConfig(cfg, fs.TaskType)
	searchHandler, err := fs.NewHandler(fs.HandlerOptions{
		CustomConfig: fs.FromWorkerConfig(searchCfg),
		Sidecar:      sidecarClient,
		Filters:      filterCache,
		Manifest:     manifest,
		Pipeline:     pipeline,
		Engines:      cfg.Engines,
		Logger:       log,
	})
	if err != nil {
		zapLog.Fatal("fourget-search handler", zap.Error(err))
	}
	start(fs.TaskType, searchCfg, searchHandler)

	filtersCfg := config.GetWorkerConfig(cfg, ef.TaskType)
	filtersHandler, err := ef.NewHandler(ef.HandlerOptions{
		CustomConfig: ef.FromWorkerConfig(filtersCfg),
		Filters:      filterCache,
		Manifest:     manifest,
		Logger:       log,
	})
	if err != nil {
		zapLog.Fatal("engine-filters handler", zap.Error(err))
	}
	start(ef.TaskType, filtersCfg, filtersHandler)

	bridgeCfg := config.GetWorkerConfig(cfg, hb.TaskType)
	bridgeHandler, err := hb.NewHandler(hb.HandlerOptions{
		CustomConfig: hb.FromWorkerConfig(bridgeCfg, cfg.Sidecar.UserAgent),
		Parser:       sidecarClient,
		Engines:      cfg.Engines,
		Pipeline:     pipeline,
		Logger:       log,
	})
	if err != nil {
		zapLog.Fatal("fourget-html-bridge handler", zap.Error(err))
	}
	start(hb.TaskType, bridgeCfg, bridgeHandler)

	healthCfg := config.GetWorkerConfig(cfg, sh.TaskType)
	healthHandler, err := sh.NewHandler(sh.HandlerOptions{
		CustomConfig: sh.FromWorkerConfig(healthCfg),
		Sidecar:      sidecarClient,
		Logger:       log,
	})
	if err != nil {
		zapLog.Fatal("sidecar-health handler", zap.Error(err))
	}
	start(sh.TaskType, healthCfg, healthHandler)

	log.Info("All workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health, readiness and metrics ---
	server := &http.Server{
		Addr: cfg.Metrics.Address,
		Handler: newServeMux(map[string]readinessCheck{
			"zeebe":   zeebe.HealthCheck,
			"sidecar": sidecarReady(sidecarClient),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Serving health and metrics", map[string]interface{}{"address": cfg.Metrics.Address})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	for _, w := range workers {
		w.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("health server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	log.Info("Worker manager stopped", nil)
}

func newPipeline(cfg config.PipelineConfig) (*results.Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	window := results.DefaultPlaceholderYearWindow
	if cfg.PlaceholderYearWindow != nil {
		window = *cfg.PlaceholderYearWindow
	}
	return results.NewPipeline(results.Options{Location: loc, PlaceholderYearWindow: window}), nil
}
