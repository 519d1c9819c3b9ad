package service

import (
	"context"
	"fmt"
	"io"

	"review-sentiment/internal/dataset"
	"review-sentiment/internal/metrics"
	"review-sentiment/internal/models"
	"review-sentiment/internal/repository"

	"go.uber.org/zap"
)

// Ingestor loads review CSVs into the store
type Ingestor struct {
	repo       *repository.ReviewRepository
	schemaPath string
	logger     *zap.Logger
}

// NewIngestor creates a new ingestion service
func NewIngestor(repo *repository.ReviewRepository, schemaPath string, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		repo:       repo,
		schemaPath: schemaPath,
		logger:     logger,
	}
}

// IngestFile ingests the CSV at path.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	reviews, err := dataset.ReadFile(path)
	if err != nil {
		metrics.RecordIngest(0, "parse", err)
		return 0, err
	}
	return i.store(ctx, reviews, path)
}

// Ingest validates every row of r, then applies the schema and upserts all
// rows in one transaction. Nothing is written when any row is invalid.
func (i *Ingestor) Ingest(ctx context.Context, r io.Reader, source string) (int, error) {
	reviews, err := dataset.Read(r)
	if err != nil {
		metrics.RecordIngest(0, "parse", err)
		return 0, err
	}
	return i.store(ctx, reviews, source)
}

func (i *Ingestor) store(ctx context.Context, reviews []models.Review, source string) (int, error) {
	if err := i.repo.EnsureSchema(ctx, i.schemaPath); err != nil {
		metrics.RecordIngest(0, "schema", err)
		return 0, err
	}

	n, err := i.repo.Upsert(ctx, reviews)
	if err != nil {
		metrics.RecordIngest(0, "store", err)
		return 0, fmt.Errorf("failed to store reviews: %w", err)
	}

	metrics.RecordIngest(n, "", nil)
	i.logger.Info("CSV ingested",
		zap.String("source", source),
		zap.Int("count", n),
		zap.String("db_path", i.repo.Path()))
	return n, nil
}
