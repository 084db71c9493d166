package main

import (
	"errors"
	"log/slog"

	"github.com/soundprediction/surveylens/pkg/logger"
)

// Prints the log lines of a typical cluster + agreement session so the
// colors can be checked in a terminal.
func main() {
	log := logger.NewDefaultLogger(slog.LevelDebug).With("run_id", "demo")

	log.Debug("Embedding client ready", "provider", "openai", "model", "text-embedding-3-small", "cache", true)
	log.Info("Loaded questions", "path", "questions_master.parquet", "count", 1200)
	log.Warn("Retrying embedding request", "attempt", 1, "delay", "1s", "error", "429 too many requests")
	log.Info("Clustering complete", "k", 8, "best_restart", 3, "inertia", 512.7)
	log.Info("Persisted cluster table", "kind", "representatives", "rows", 80)
	log.Info("Persisted cluster table", "kind", "clusters", "rows", 1200)

	log.Info("Agreement computed", "labelers", 4, "questions", 1200, "mean_jaccard", 0.41)
	log.Info("Wrote agreement table", "path", "temp_result/cross_labeler_agreement.csv")
	log.Error("Agreement tables failed cross-validation", "error", errors.New(`question "q17": tag "Social" in exact_1 and exact_2`))
}
