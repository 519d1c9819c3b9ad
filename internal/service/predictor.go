package service

import (
	"errors"
	"fmt"
	"os"

	"review-sentiment/internal/classifier"
	"review-sentiment/internal/metrics"
	"review-sentiment/internal/models"

	"go.uber.org/zap"
)

// ErrModelNotTrained is returned when no pipeline artifact exists yet.
var ErrModelNotTrained = errors.New("model not trained yet")

// Predictor loads the trained pipeline from disk
type Predictor struct {
	modelPath string
	logger    *zap.Logger
}

// NewPredictor creates a predictor for the artifact at modelPath
func NewPredictor(modelPath string, logger *zap.Logger) *Predictor {
	return &Predictor{
		modelPath: modelPath,
		logger:    logger,
	}
}

// ModelPath returns the artifact location.
func (p *Predictor) ModelPath() string {
	return p.modelPath
}

// Load reads the pipeline. A missing artifact yields ErrModelNotTrained.
func (p *Predictor) Load() (*classifier.Pipeline, error) {
	pipeline, err := classifier.Load(p.modelPath)
	if errors.Is(err, os.ErrNotExist) {
		metrics.SetModelLoaded(false)
		return nil, ErrModelNotTrained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	metrics.SetModelLoaded(true)
	p.logger.Info("Model loaded",
		zap.String("path", p.modelPath),
		zap.String("artifact_id", pipeline.ID),
		zap.Int("features", pipeline.Vectorizer.NumFeatures()))
	return pipeline, nil
}

// Predict loads the pipeline and classifies texts.
func (p *Predictor) Predict(texts []string) ([]models.Prediction, error) {
	pipeline, err := p.Load()
	if err != nil {
		return nil, err
	}
	return Classify(pipeline, texts), nil
}

// Classify runs pipeline over texts and records the predicted labels.
func Classify(pipeline *classifier.Pipeline, texts []string) []models.Prediction {
	preds := pipeline.Predict(texts)
	for _, pr := range preds {
		metrics.RecordPrediction(string(pr.Predicted))
	}
	return preds
}
