// Command promptpilot runs the prompt analysis service: heuristic quality
// scoring, LLM execution, and bounded prompt remediation behind an HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/promptpilot/promptpilot/config"
	"github.com/promptpilot/promptpilot/engine"
	"github.com/promptpilot/promptpilot/evaluate"
	"github.com/promptpilot/promptpilot/history"
	"github.com/promptpilot/promptpilot/internal/logging"
	"github.com/promptpilot/promptpilot/llm"
	"github.com/promptpilot/promptpilot/providers"
	"github.com/promptpilot/promptpilot/server"
	"github.com/promptpilot/promptpilot/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.NewLogger(logging.LogLevelError).Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	registry := providers.NewProviderRegistry()

	generator, err := llm.NewClient(cfg, cfg.Model, logger, registry)
	if err != nil {
		logger.Error("Failed to create generation client", "error", err)
		os.Exit(1)
	}
	optimizer, err := llm.NewClient(cfg, cfg.OptimizerModel, logger, registry)
	if err != nil {
		logger.Error("Failed to create optimizer client", "error", err)
		os.Exit(1)
	}
	optimizer.SetOption("temperature", cfg.OptimizerTemperature)

	promRegistry := prometheus.NewRegistry()
	recorder := telemetry.NewAsyncRecorder(telemetry.NewPrometheusRecorder(promRegistry, logger), logger)
	defer recorder.Close()

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithRecorder(recorder),
		engine.WithClientFactory(func(model string) (llm.Client, error) {
			return llm.NewClient(cfg, model, logger, registry)
		}),
	}

	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			logger.Error("Failed to open history store", "path", cfg.HistoryPath, "error", err)
			os.Exit(1)
		}
		defer store.Close()
		opts = append(opts, engine.WithHistory(store))
	}

	eng := engine.New(cfg, generator, optimizer, evaluate.NewLexicalJudge(), opts...)

	srv := server.New(cfg, eng, promRegistry, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("promptpilot started",
		"provider", cfg.Provider, "model", cfg.Model, "addr", cfg.ListenAddr,
		"accuracy_threshold", cfg.AccuracyThreshold)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}
}
