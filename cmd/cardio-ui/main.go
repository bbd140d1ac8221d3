package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cardiod/internal/config"
	"cardiod/internal/httpserver"
	"cardiod/internal/ui"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", ui.ServiceName)
	slog.SetDefault(logger)

	cfg, err := config.UIConfigFromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("using prediction API", "url", cfg.UpstreamURL)

	api, err := ui.NewAPI(logger, ui.NewClient(cfg.UpstreamURL))
	if err != nil {
		logger.Error("initialize templates", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srvCfg := httpserver.Config{
		Service:         ui.ServiceName,
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
	if err := httpserver.Run(ctx, logger, srvCfg, httpserver.Wrap(logger, api.Router())); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
