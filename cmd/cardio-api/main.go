package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cardiod/internal/artifact"
	"cardiod/internal/config"
	"cardiod/internal/heart"
	"cardiod/internal/httpserver"
	"cardiod/internal/inference"
	"cardiod/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", inference.ServiceName)
	slog.SetDefault(logger)

	cfg, err := config.APIConfigFromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	models, err := artifact.FromEnv()
	if err != nil {
		logger.Error("model store configuration", "error", err)
		os.Exit(1)
	}

	raw, err := models.Fetch(ctx)
	if err != nil {
		logger.Error("fetch model artifact", "location", models.Location(), "error", err)
		os.Exit(1)
	}
	model, err := heart.DecodeModel(raw)
	if err != nil {
		logger.Error("decode model artifact", "location", models.Location(), "error", err)
		os.Exit(1)
	}
	logger.Info("model loaded",
		"location", models.Location(),
		"trained_at", model.TrainedAt,
		"run_id", model.RunID,
		"train_accuracy", model.TrainAccuracy)

	api := inference.NewAPI(logger, model, models.Location(), store.InfoFromEnv())

	srvCfg := httpserver.Config{
		Service:         inference.ServiceName,
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
	if err := httpserver.Run(ctx, logger, srvCfg, httpserver.Wrap(logger, api.Router())); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
