package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"review-sentiment/internal/classifier"
	"review-sentiment/internal/repository"
	"review-sentiment/internal/service"

	"go.uber.org/zap"
)

func main() {
	opts := classifier.DefaultOptions()

	dbPath := flag.String("db", "data/reviews.db", "SQLite database path")
	outPath := flag.String("out", "models/pipeline.json", "where to write the trained pipeline")
	flag.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed for the train/test split")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	repo := repository.NewReviewRepository(*dbPath, logger)
	trainer := service.NewTrainer(repo, *outPath, opts, logger)

	result, err := trainer.Train(context.Background())
	if errors.Is(err, service.ErrNoLabeledData) {
		fmt.Fprintln(os.Stderr, "No labeled data found in DB. Ingest a labeled CSV first.")
		os.Exit(1)
	}
	if err != nil {
		logger.Error("Training failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Print(result.Report.String())
	fmt.Printf("Saved pipeline → %s\n", result.ModelPath)
}
