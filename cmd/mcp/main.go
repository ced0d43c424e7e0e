package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/akulagin/rag-workbench/internal/adapters/mcp"
	"github.com/akulagin/rag-workbench/internal/bootstrap"
	"github.com/akulagin/rag-workbench/internal/config"
	"github.com/akulagin/rag-workbench/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger("mcp", "info").Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "mcp")
	if err != nil {
		logging.NewJSONLogger("mcp", cfg.LogLevel).Error("bootstrap", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.QueryUC, app.SelfCheckUC, app.Logger)
	if err := srv.ServeStdio(); err != nil {
		app.Logger.Error("mcp server", "error", err)
		os.Exit(1)
	}
}
