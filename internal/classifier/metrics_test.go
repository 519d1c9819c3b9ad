package classifier

import (
	"math"
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	r, err := Evaluate([]int{0, 0, 1, 1}, []float64{0.1, 0.6, 0.4, 0.9})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.Confusion != [2][2]int{{1, 1}, {1, 1}} {
		t.Errorf("confusion = %v", r.Confusion)
	}
	if r.Accuracy != 0.5 {
		t.Errorf("accuracy = %v", r.Accuracy)
	}
	for c, m := range r.Classes {
		if m.Precision != 0.5 || m.Recall != 0.5 || m.F1 != 0.5 || m.Support != 2 {
			t.Errorf("class %d metrics = %+v", c, m)
		}
	}
	if r.AUC == nil || math.Abs(*r.AUC-0.75) > 1e-9 {
		t.Errorf("auc = %v, want 0.75", r.AUC)
	}

	out := r.String()
	for _, want := range []string{"precision", "macro avg", "weighted avg", "ROC AUC: 0.7500", "POS"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestEvaluatePerfectScores(t *testing.T) {
	r, err := Evaluate([]int{0, 1, 1}, []float64{0.2, 0.7, 0.95})
	if err != nil {
		t.Fatal(err)
	}
	if r.Accuracy != 1 || r.AUC == nil || math.Abs(*r.AUC-1) > 1e-9 {
		t.Errorf("perfect classifier scored %+v", r)
	}
}

func TestEvaluateSingleClassSkipsAUC(t *testing.T) {
	r, err := Evaluate([]int{1, 1}, []float64{0.8, 0.3})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.AUC != nil {
		t.Errorf("auc computed for single-class split: %v", *r.AUC)
	}
	if r.AUCNote == "" || !strings.Contains(r.String(), "only one class") {
		t.Errorf("missing diagnostic note: %q", r.AUCNote)
	}
}

func TestEvaluateZeroDivision(t *testing.T) {
	r, err := Evaluate([]int{0, 1}, []float64{0.1, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	pos := r.Classes[1]
	if pos.Precision != 0 || pos.Recall != 0 || pos.F1 != 0 {
		t.Errorf("POS metrics with no positive predictions = %+v", pos)
	}
}

func TestEvaluateRejectsMismatch(t *testing.T) {
	if _, err := Evaluate([]int{0}, nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Evaluate(nil, nil); err == nil {
		t.Fatal("expected error for empty split")
	}
}
