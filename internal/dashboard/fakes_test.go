package dashboard

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"review-sentiment/internal/classifier"
	"review-sentiment/internal/models"
	"review-sentiment/internal/repository"
	"review-sentiment/internal/service"
)

type fakeCorpus struct {
	mu      sync.Mutex
	reviews []models.Review
	calls   int
	delay   time.Duration
	// started and release, when set, hold LoadAll until release is closed.
	started chan struct{}
	release chan struct{}
}

func (f *fakeCorpus) LoadAll(ctx context.Context) ([]models.Review, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reviews, nil
}

func (f *fakeCorpus) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeModel struct {
	mu       sync.Mutex
	pipeline *classifier.Pipeline
	calls    int
}

func (f *fakeModel) Load() (*classifier.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.pipeline == nil {
		return nil, service.ErrModelNotTrained
	}
	return f.pipeline, nil
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeIngester struct {
	n      int
	err    error
	calls  int
	source string
	body   string
}

func (f *fakeIngester) Ingest(ctx context.Context, r io.Reader, source string) (int, error) {
	f.calls++
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.source, f.body = source, string(data)
	return f.n, f.err
}

type fakeStats struct{}

func (fakeStats) GetStats(ctx context.Context) (*repository.Stats, error) {
	return &repository.Stats{Total: 3, ByLabel: map[string]int{}, ByProduct: map[string]int{}}, nil
}

func strPtr(s string) *string { return &s }

func date(s string) *time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func sampleReviews() []models.Review {
	return []models.Review{
		{ReviewID: "1", Date: date("2024-01-05"), Product: strPtr("Phone"), Text: "Love the battery, great phone"},
		{ReviewID: "2", Date: date("2024-02-10"), Product: strPtr("Laptop"), Text: "Terrible keyboard, awful screen"},
		{ReviewID: "3", Product: strPtr("Phone"), Text: "Awful camera"},
		{ReviewID: "4", Date: date("2024-03-01"), Text: "Great value"},
	}
}

func trainedPipeline(t *testing.T) *classifier.Pipeline {
	t.Helper()
	docs := []string{
		"love the battery great phone",
		"great screen love it",
		"excellent love great",
		"terrible keyboard awful screen",
		"awful camera terrible",
		"terrible awful broken",
	}
	labels := []int{1, 1, 1, 0, 0, 0}
	p, _, err := classifier.Fit(docs, labels, classifier.DefaultOptions())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := p.Marshal(); err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return p
}
