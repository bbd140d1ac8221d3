package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cardiod/internal/artifact"
	"cardiod/internal/heart"
	"cardiod/internal/store"
)

// cardio-train fits the logistic regression model from patient records and
// writes the artifact where cardio-api will load it from.
func main() {
	var (
		csvPath = flag.String("csv", "", "Train from a CSV file instead of the database")
		lr      = flag.Float64("learning-rate", 0.1, "Gradient descent learning rate")
		epochs  = flag.Int("epochs", 500, "Gradient descent epochs")
		l2      = flag.Float64("l2", 0, "L2 regularization strength")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", "cardio-train")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	set, err := loadTrainingSet(ctx, logger, *csvPath)
	if err != nil {
		logger.Error("load training data", "error", err)
		os.Exit(1)
	}
	logger.Info("training data loaded", "rows", len(set.Rows))

	model, err := heart.Train(set.Rows, set.Labels, heart.TrainOptions{
		LearningRate: *lr,
		Epochs:       *epochs,
		L2:           *l2,
	})
	if err != nil {
		logger.Error("train model", "error", err)
		os.Exit(1)
	}
	logger.Info("model trained",
		"run_id", model.RunID,
		"train_accuracy", model.TrainAccuracy)

	data, err := model.Encode()
	if err != nil {
		logger.Error("encode model", "error", err)
		os.Exit(1)
	}

	models, err := artifact.FromEnv()
	if err != nil {
		logger.Error("model store configuration", "error", err)
		os.Exit(1)
	}
	if err := models.Put(ctx, data); err != nil {
		logger.Error("store model artifact", "location", models.Location(), "error", err)
		os.Exit(1)
	}
	logger.Info("model artifact stored", "location", models.Location())
}

func loadTrainingSet(ctx context.Context, logger *slog.Logger, csvPath string) (*store.TrainingSet, error) {
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		logger.Info("reading training data", "csv", csvPath)
		return store.ReadTrainingCSV(f)
	}

	cfg, err := store.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	patients := store.NewPatientStore(db)
	n, err := patients.Count(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("reading training data", "table", "patient_ml_data", "rows", n)
	return patients.LoadTrainingSet(ctx)
}
