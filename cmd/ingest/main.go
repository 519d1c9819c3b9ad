package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"review-sentiment/internal/repository"
	"review-sentiment/internal/service"

	"go.uber.org/zap"
)

func main() {
	csvPath := flag.String("csv", "", "path to the reviews CSV (required)")
	dbPath := flag.String("db", "data/reviews.db", "SQLite database path")
	schemaPath := flag.String("schema", "sql/schema.sql", "DDL script applied before ingestion")
	flag.Parse()

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "--csv is required")
		flag.Usage()
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	repo := repository.NewReviewRepository(*dbPath, logger)
	ingestor := service.NewIngestor(repo, *schemaPath, logger)

	n, err := ingestor.IngestFile(context.Background(), *csvPath)
	if err != nil {
		logger.Error("Ingestion failed", zap.String("csv", *csvPath), zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("Ingested %d reviews into DB\n", n)
}
