package classifier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	artifactFormat  = "review-sentiment/tfidf-logreg"
	artifactVersion = 1
)

// ErrUnsupportedArtifact is returned for files written in another format.
var ErrUnsupportedArtifact = errors.New("unsupported model artifact")

type artifact struct {
	Format     string              `json:"format"`
	Version    int                 `json:"version"`
	ID         string              `json:"id"`
	Vectorizer *Vectorizer         `json:"vectorizer"`
	Classifier *LogisticRegression `json:"classifier"`
}

// Marshal encodes the pipeline and assigns its content-derived ID. Encoding
// the same fitted state always yields the same bytes.
func (p *Pipeline) Marshal() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	a := artifact{
		Format:     artifactFormat,
		Version:    artifactVersion,
		Vectorizer: p.Vectorizer,
		Classifier: p.Model,
	}
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pipeline: %w", err)
	}
	a.ID = uuid.NewSHA1(uuid.NameSpaceOID, body).String()

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode pipeline: %w", err)
	}
	p.ID = a.ID
	return data, nil
}

// Save writes the pipeline to path atomically, creating parent directories.
func (p *Pipeline) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pipeline-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write pipeline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write pipeline: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move pipeline into place: %w", err)
	}
	return nil
}

// Unmarshal decodes a pipeline produced by Marshal.
func Unmarshal(data []byte) (*Pipeline, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}
	if a.Format != artifactFormat || a.Version != artifactVersion {
		return nil, fmt.Errorf("%w: %s v%d", ErrUnsupportedArtifact, a.Format, a.Version)
	}

	p := &Pipeline{ID: a.ID, Vectorizer: a.Vectorizer, Model: a.Classifier}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedArtifact, err)
	}
	p.Vectorizer.buildIndex()
	return p, nil
}

// Load reads a pipeline from path. A missing file yields an error wrapping
// os.ErrNotExist.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}
	return Unmarshal(data)
}
