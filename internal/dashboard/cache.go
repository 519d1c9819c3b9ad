package dashboard

import (
	"context"
	"errors"
	"sync"

	"review-sentiment/internal/classifier"
	"review-sentiment/internal/metrics"
	"review-sentiment/internal/models"
	"review-sentiment/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CorpusSource loads every stored review.
type CorpusSource interface {
	LoadAll(ctx context.Context) ([]models.Review, error)
}

// ModelSource loads the trained pipeline, returning service.ErrModelNotTrained
// when none exists.
type ModelSource interface {
	Load() (*classifier.Pipeline, error)
}

// Cache keeps the corpus and the model in memory between requests. An absent
// model or an empty corpus is cached like any other value; only Invalidate
// forces a reload.
type Cache struct {
	corpusSource CorpusSource
	modelSource  ModelSource
	logger       *zap.Logger

	mu          sync.Mutex
	generation  uint64
	corpus      []models.Review
	corpusReady bool
	model       *classifier.Pipeline
	modelReady  bool

	group singleflight.Group
}

// NewCache creates an empty cache over the given sources.
func NewCache(corpus CorpusSource, model ModelSource, logger *zap.Logger) *Cache {
	return &Cache{
		corpusSource: corpus,
		modelSource:  model,
		logger:       logger,
	}
}

// Corpus returns the cached reviews, loading them on first use.
func (c *Cache) Corpus(ctx context.Context) ([]models.Review, error) {
	c.mu.Lock()
	if c.corpusReady {
		corpus := c.corpus
		c.mu.Unlock()
		return corpus, nil
	}
	gen := c.generation
	c.mu.Unlock()

	v, err, _ := c.group.Do("corpus", func() (interface{}, error) {
		c.mu.Lock()
		if c.corpusReady {
			corpus := c.corpus
			c.mu.Unlock()
			return corpus, nil
		}
		c.mu.Unlock()

		// Shared by every caller collapsed onto this load, so one caller
		// going away must not fail the rest.
		reviews, err := c.corpusSource.LoadAll(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		metrics.CacheLoads.WithLabelValues("corpus").Inc()

		c.mu.Lock()
		if c.generation == gen {
			c.corpus = reviews
			c.corpusReady = true
		}
		c.mu.Unlock()

		c.logger.Debug("Corpus loaded", zap.Int("count", len(reviews)))
		return reviews, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Review), nil
}

// Model returns the cached pipeline, or nil when no model has been trained.
func (c *Cache) Model() (*classifier.Pipeline, error) {
	c.mu.Lock()
	if c.modelReady {
		model := c.model
		c.mu.Unlock()
		return model, nil
	}
	gen := c.generation
	c.mu.Unlock()

	v, err, _ := c.group.Do("model", func() (interface{}, error) {
		c.mu.Lock()
		if c.modelReady {
			model := c.model
			c.mu.Unlock()
			return model, nil
		}
		c.mu.Unlock()

		pipeline, err := c.modelSource.Load()
		if err != nil && !errors.Is(err, service.ErrModelNotTrained) {
			return nil, err
		}
		metrics.CacheLoads.WithLabelValues("model").Inc()

		c.mu.Lock()
		if c.generation == gen {
			c.model = pipeline
			c.modelReady = true
		}
		c.mu.Unlock()

		if pipeline == nil {
			c.logger.Info("No trained model found, classification disabled")
		}
		return pipeline, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*classifier.Pipeline), nil
}

// Invalidate drops both cached values. Call it after a successful ingestion.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.corpus = nil
	c.corpusReady = false
	c.model = nil
	c.modelReady = false
	c.mu.Unlock()

	c.group.Forget("corpus")
	c.group.Forget("model")
	metrics.CacheInvalidations.Inc()
}
