package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"review-sentiment/internal/classifier"
	"review-sentiment/internal/models"
	"review-sentiment/internal/repository"
	"review-sentiment/internal/textclean"

	"go.uber.org/zap"
)

// ErrNoLabeledData is returned when the store holds no usable labeled reviews.
var ErrNoLabeledData = errors.New("no labeled data found in DB")

// TrainResult describes a finished training run.
type TrainResult struct {
	Report     *classifier.Report
	ModelPath  string
	ArtifactID string
	TrainSize  int
	TestSize   int
	Fit        classifier.FitInfo
}

// Trainer fits the sentiment pipeline on the labeled corpus
type Trainer struct {
	repo      *repository.ReviewRepository
	modelPath string
	opts      classifier.Options
	logger    *zap.Logger
}

// NewTrainer creates a new training service
func NewTrainer(
	repo *repository.ReviewRepository,
	modelPath string,
	opts classifier.Options,
	logger *zap.Logger,
) *Trainer {
	return &Trainer{
		repo:      repo,
		modelPath: modelPath,
		opts:      opts,
		logger:    logger,
	}
}

// Train loads labeled reviews, fits on a stratified split, evaluates on the
// held-out part and saves the pipeline.
func (t *Trainer) Train(ctx context.Context) (*TrainResult, error) {
	reviews, err := t.repo.LoadLabeled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load labeled reviews: %w", err)
	}

	docs, labels := prepare(reviews)
	if len(docs) == 0 {
		return nil, ErrNoLabeledData
	}

	trainIdx, testIdx, err := classifier.StratifiedSplit(labels, t.opts.TestSize, t.opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to split data: %w", err)
	}
	trainDocs, trainLabels := pick(docs, labels, trainIdx)
	testDocs, testLabels := pick(docs, labels, testIdx)

	pipeline, info, err := classifier.Fit(trainDocs, trainLabels, t.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fit pipeline: %w", err)
	}
	if !info.Converged {
		t.logger.Warn("Optimizer did not converge",
			zap.Int("iterations", info.Iterations),
			zap.String("status", info.Status))
	}

	report, err := classifier.Evaluate(testLabels, pipeline.PredictProba(testDocs))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate pipeline: %w", err)
	}
	if report.AUC == nil {
		t.logger.Warn("ROC AUC skipped", zap.String("reason", report.AUCNote))
	}

	if err := pipeline.Save(t.modelPath); err != nil {
		return nil, fmt.Errorf("failed to save pipeline: %w", err)
	}

	t.logger.Info("Pipeline trained",
		zap.Int("train_size", len(trainDocs)),
		zap.Int("test_size", len(testDocs)),
		zap.Int("features", pipeline.Vectorizer.NumFeatures()),
		zap.Float64("accuracy", report.Accuracy),
		zap.String("artifact_id", pipeline.ID),
		zap.String("path", t.modelPath))

	return &TrainResult{
		Report:     report,
		ModelPath:  t.modelPath,
		ArtifactID: pipeline.ID,
		TrainSize:  len(trainDocs),
		TestSize:   len(testDocs),
		Fit:        info,
	}, nil
}

// prepare drops rows with blank text or label, normalizes text and maps
// labels to 1 (POS) or 0 (NEG).
func prepare(reviews []models.Review) ([]string, []int) {
	var docs []string
	var labels []int
	for i := range reviews {
		r := &reviews[i]
		if strings.TrimSpace(r.Text) == "" || !r.IsLabeled() {
			continue
		}
		docs = append(docs, textclean.Normalize(r.Text))
		if models.NormalizeLabel(*r.Label) == models.LabelPositive {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
	}
	return docs, labels
}

func pick(docs []string, labels []int, idx []int) ([]string, []int) {
	outDocs := make([]string, len(idx))
	outLabels := make([]int, len(idx))
	for k, i := range idx {
		outDocs[k] = docs[i]
		outLabels[k] = labels[i]
	}
	return outDocs, outLabels
}
