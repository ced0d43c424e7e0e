package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/akulagin/rag-workbench/internal/adapters/http"
	"github.com/akulagin/rag-workbench/internal/bootstrap"
	"github.com/akulagin/rag-workbench/internal/config"
	"github.com/akulagin/rag-workbench/internal/observability/logging"
	"github.com/akulagin/rag-workbench/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger("api", "info").Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "api")
	if err != nil {
		logging.NewJSONLogger("api", cfg.LogLevel).Error("bootstrap", "error", err)
		os.Exit(1)
	}
	defer app.Close()
	logger := app.Logger

	router := httpadapter.NewRouter(
		app.IngestUC,
		app.Sources,
		app.Collections,
		app.QueryUC,
		app.SelfCheckUC,
		metrics.NewHTTPServerMetrics("api"),
		httpadapter.Config{
			Service:        "api",
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxInFlight:    cfg.APIMaxInFlight,
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.GenerateTimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown", "error", err)
	}
}
