package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akulagin/rag-workbench/internal/bootstrap"
	"github.com/akulagin/rag-workbench/internal/config"
	"github.com/akulagin/rag-workbench/internal/observability/logging"
	"github.com/akulagin/rag-workbench/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger("worker", "info").Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "worker")
	if err != nil {
		logging.NewJSONLogger("worker", cfg.LogLevel).Error("bootstrap", "error", err)
		os.Exit(1)
	}
	defer app.Close()
	logger := app.Logger

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeSourceUploaded(ctx, func(handlerCtx context.Context, sourceID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		if src, err := app.Sources.GetByID(processCtx, sourceID); err == nil {
			workerMetrics.ObserveQueueLag("worker", time.Since(src.CreatedAt))
		}

		workerMetrics.StartSource()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, sourceID)
		workerMetrics.FinishSource("worker", time.Since(start), processErr)

		if processErr == nil {
			if src, err := app.Sources.GetByID(processCtx, sourceID); err == nil {
				workerMetrics.ObserveIndexedChunks("worker", src.ChunkCount)
			}
		}
		return processErr
	})
	if err != nil {
		logger.Error("worker subscribe", "error", err)
		os.Exit(1)
	}
}
