package classifier

import (
	"fmt"

	"review-sentiment/internal/models"
	"review-sentiment/internal/textclean"
)

// Options configures training.
type Options struct {
	TestSize float64
	Seed     int64
	MinDF    int
	NGramMax int
	MaxIter  int
	C        float64
}

// DefaultOptions returns the standard training configuration.
func DefaultOptions() Options {
	return Options{
		TestSize: 0.2,
		Seed:     42,
		MinDF:    2,
		NGramMax: 2,
		MaxIter:  200,
		C:        1,
	}
}

// Pipeline couples a fitted vectorizer with a fitted classifier.
type Pipeline struct {
	ID         string
	Vectorizer *Vectorizer
	Model      *LogisticRegression
}

// Fit trains a new pipeline on already-normalized docs with 0/1 labels.
func Fit(docs []string, labels []int, opts Options) (*Pipeline, FitInfo, error) {
	vec := NewVectorizer(opts.NGramMax, opts.MinDF)
	X, err := vec.FitTransform(docs)
	if err != nil {
		return nil, FitInfo{}, err
	}

	model := NewLogisticRegression(opts.C, opts.MaxIter)
	info, err := model.Fit(X, labels, vec.NumFeatures())
	if err != nil {
		return nil, info, err
	}
	return &Pipeline{Vectorizer: vec, Model: model}, info, nil
}

// PredictProba returns P(POS) for each already-normalized doc.
func (p *Pipeline) PredictProba(docs []string) []float64 {
	rows := p.Vectorizer.Transform(docs)
	probs := make([]float64, len(rows))
	for i, row := range rows {
		probs[i] = p.Model.PredictProba(row)
	}
	return probs
}

// Predict normalizes raw texts and classifies them. The returned slice is
// aligned with texts and keeps the raw text.
func (p *Pipeline) Predict(texts []string) []models.Prediction {
	probs := p.PredictProba(textclean.NormalizeAll(texts))
	preds := make([]models.Prediction, len(texts))
	for i, text := range texts {
		preds[i] = models.NewPrediction(text, probs[i])
	}
	return preds
}

func (p *Pipeline) validate() error {
	if p.Vectorizer == nil || p.Model == nil {
		return fmt.Errorf("pipeline is missing its vectorizer or model")
	}
	if err := p.Vectorizer.validate(); err != nil {
		return err
	}
	return p.Model.validate(p.Vectorizer.NumFeatures())
}
