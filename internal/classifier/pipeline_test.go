package classifier

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"review-sentiment/internal/models"
)

func trainingCorpus() ([]string, []int) {
	docs := []string{
		"love this phone great battery",
		"excellent camera love it",
		"great value love the screen",
		"amazing sound great quality",
		"excellent build amazing price",
		"terrible battery broke fast",
		"awful screen terrible support",
		"broken on arrival awful",
		"waste of money terrible",
		"awful quality broken charger",
	}
	labels := []int{1, 1, 1, 1, 1, 0, 0, 0, 0, 0}
	return docs, labels
}

func fitTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	docs, labels := trainingCorpus()
	p, _, err := Fit(docs, labels, DefaultOptions())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return p
}

func TestPipelinePredict(t *testing.T) {
	p := fitTestPipeline(t)

	texts := []string{"I LOVE this product!!", "Terrible. Awful!", ""}
	preds := p.Predict(texts)
	if len(preds) != len(texts) {
		t.Fatalf("got %d predictions for %d texts", len(preds), len(texts))
	}
	if preds[0].Predicted != models.LabelPositive {
		t.Errorf("positive text predicted %+v", preds[0])
	}
	if preds[1].Predicted != models.LabelNegative {
		t.Errorf("negative text predicted %+v", preds[1])
	}
	for i, pr := range preds {
		if pr.Text != texts[i] {
			t.Errorf("prediction %d lost its text: %q", i, pr.Text)
		}
		if pr.ProbPos < 0 || pr.ProbPos > 1 || math.Abs(pr.ProbPos+pr.ProbNeg-1) > 1e-12 {
			t.Errorf("prediction %d breaks the probability law: %+v", i, pr)
		}
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	p := fitTestPipeline(t)
	path := filepath.Join(t.TempDir(), "models", "pipeline.json")
	if err := p.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p.ID == "" {
		t.Fatal("Save did not assign an artifact id")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != p.ID {
		t.Errorf("id = %q, want %q", loaded.ID, p.ID)
	}

	texts := []string{"love the battery", "terrible screen", "nothing known here"}
	want := p.Predict(texts)
	got := loaded.Predict(texts)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("prediction %d changed after reload: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestArtifactDeterministic(t *testing.T) {
	a, err := fitTestPipeline(t).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	b, err := fitTestPipeline(t).Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("identical training produced different artifacts")
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load error = %v, want os.ErrNotExist", err)
	}
}

func TestUnmarshalRejectsForeignFormat(t *testing.T) {
	_, err := Unmarshal([]byte(`{"format":"other","version":1}`))
	if !errors.Is(err, ErrUnsupportedArtifact) {
		t.Fatalf("error = %v, want ErrUnsupportedArtifact", err)
	}
	if _, err := Unmarshal([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}
