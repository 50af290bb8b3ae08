// cmd/leadscore/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FairForge/leadscore/internal/alerting"
	"github.com/FairForge/leadscore/internal/config"
	"github.com/FairForge/leadscore/internal/drift"
	"github.com/FairForge/leadscore/internal/engine"
)

// logTrainer records retrain requests for an external training pipeline
type logTrainer struct {
	logger *zap.Logger
}

func (t *logTrainer) RequestRetrain(_ context.Context, req drift.RetrainRequest) error {
	t.logger.Warn("retraining requested",
		zap.String("model_version", req.ModelVersion),
		zap.String("reason", req.Reason))
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "leadscore: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer func() { _ = logger.Sync() }()

	engineCfg := engine.DefaultConfig()
	engineCfg.CacheTTL = cfg.Cache.TTL
	engineCfg.CacheRetention = cfg.Cache.Retention
	engineCfg.SweepInterval = cfg.Cache.SweepInterval
	engineCfg.BatchWorkers = cfg.Engine.BatchWorkers
	engineCfg.BatchQueue = cfg.Engine.BatchQueue
	engineCfg.Drift.Interval = cfg.Drift.Interval
	engineCfg.Drift.WindowSize = cfg.Drift.WindowSize
	engineCfg.Drift.MinWindow = cfg.Drift.MinWindow
	engineCfg.Drift.Threshold = cfg.Drift.Threshold
	engineCfg.Drift.KSThreshold = cfg.Drift.KSThreshold
	engineCfg.Drift.HighStreak = cfg.Drift.HighStreak
	engineCfg.Drift.AlertCooldown = cfg.Drift.AlertCooldown
	engineCfg.Drift.RetrainPerHour = cfg.Drift.RetrainPerHour

	dispatcher := alerting.NewDispatcher(logger)
	dispatcher.RegisterChannel(alerting.NewLogChannel(logger))
	if err := dispatcher.AddRoute(alerting.RouteConfig{
		Name:        "default",
		MinSeverity: drift.SeverityLow,
		Channels:    []string{"log"},
	}); err != nil {
		logger.Fatal("failed to configure alert routing", zap.Error(err))
	}

	eng := engine.New(engineCfg, dispatcher, &logTrainer{logger: logger}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng.Start(ctx)

	if cfg.Models.WeightsFile != "" {
		watcher, err := config.NewModelWatcher(cfg.Models.WeightsFile, eng, logger)
		if err != nil {
			logger.Fatal("failed to load model weights", zap.Error(err))
		}
		go watcher.Run(ctx)
		logger.Info("watching model weights manifest",
			zap.String("path", cfg.Models.WeightsFile))
	} else {
		logger.Warn("no weights_file configured, engine starts without a model")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		health := eng.Health()
		status := http.StatusOK
		for _, state := range health {
			if state != engine.HealthOK {
				status = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(health)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: mux,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
		if err := eng.Close(); err != nil {
			logger.Error("engine close error", zap.Error(err))
		}
	}()

	logger.Info("leadscore started",
		zap.Int("metrics_port", cfg.Server.MetricsPort),
		zap.Int("batch_workers", cfg.Engine.BatchWorkers))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("metrics server failed", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "leadscore: creating logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
