package logger_test

import (
	"log/slog"
	"os"

	"github.com/soundprediction/surveylens/pkg/logger"
)

func ExampleNewDefaultLogger() {
	log := logger.NewDefaultLogger(slog.LevelInfo).With("run_id", "5f1c")

	log.Info("Loaded questions", "count", 1200)
	log.Info("Persisted cluster table", "kind", "clusters", "rows", 1200)
	log.Warn("Retrying embedding request", "attempt", 1)
}

func ExampleNewLogger() {
	noColor := false
	log := logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: "text",
		Output: os.Stdout,
		Color:  &noColor,
	})

	log.Info("Agreement computed", "labelers", 4, "questions", 1200, "mean_jaccard", 0.41)
}
