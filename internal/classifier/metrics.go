package classifier

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ClassNames orders the two classes as they appear in reports: index 0 is
// the negative class, index 1 the positive class.
var ClassNames = [2]string{"NEG", "POS"}

// ClassMetrics holds per-class scores.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the evaluation of a model on a held-out split.
type Report struct {
	Classes     [2]ClassMetrics `json:"classes"`
	Accuracy    float64         `json:"accuracy"`
	MacroAvg    ClassMetrics    `json:"macro_avg"`
	WeightedAvg ClassMetrics    `json:"weighted_avg"`
	// Confusion[true][predicted]
	Confusion [2][2]int `json:"confusion"`
	AUC       *float64  `json:"auc,omitempty"`
	AUCNote   string    `json:"auc_note,omitempty"`
}

// Evaluate scores positive-class probabilities against 0/1 truth using a 0.5
// decision threshold.
func Evaluate(yTrue []int, probPos []float64) (*Report, error) {
	if len(yTrue) != len(probPos) {
		return nil, fmt.Errorf("got %d labels but %d scores", len(yTrue), len(probPos))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("cannot evaluate an empty split")
	}

	r := &Report{}
	correct := 0
	for i, t := range yTrue {
		pred := 0
		if probPos[i] >= 0.5 {
			pred = 1
		}
		r.Confusion[t][pred]++
		if pred == t {
			correct++
		}
	}
	total := len(yTrue)
	r.Accuracy = float64(correct) / float64(total)

	for c := 0; c < 2; c++ {
		tp := r.Confusion[c][c]
		predicted := r.Confusion[0][c] + r.Confusion[1][c]
		support := r.Confusion[c][0] + r.Confusion[c][1]

		m := ClassMetrics{
			Precision: safeDiv(float64(tp), float64(predicted)),
			Recall:    safeDiv(float64(tp), float64(support)),
			Support:   support,
		}
		m.F1 = safeDiv(2*m.Precision*m.Recall, m.Precision+m.Recall)
		r.Classes[c] = m

		r.MacroAvg.Precision += m.Precision / 2
		r.MacroAvg.Recall += m.Recall / 2
		r.MacroAvg.F1 += m.F1 / 2

		w := float64(support) / float64(total)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total

	if r.Classes[0].Support == 0 || r.Classes[1].Support == 0 {
		r.AUCNote = "ROC AUC not computed: only one class present in the test split"
		return r, nil
	}
	auc := rocAUC(yTrue, probPos)
	r.AUC = &auc
	return r, nil
}

func rocAUC(yTrue []int, probPos []float64) float64 {
	scores := append([]float64(nil), probPos...)
	classes := make([]bool, len(yTrue))
	for i, t := range yTrue {
		classes[i] = t == 1
	}
	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// String renders the report as a plain-text classification table.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %9s %9s %9s %9s\n\n", "", "precision", "recall", "f1-score", "support")
	for c, name := range ClassNames {
		m := r.Classes[c]
		fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", name, m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %9s %9s %9.2f %9d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	b.WriteString("\nConfusion matrix (rows = true, cols = predicted):\n")
	fmt.Fprintf(&b, "%12s %6s %6s\n", "", ClassNames[0], ClassNames[1])
	for t, name := range ClassNames {
		fmt.Fprintf(&b, "%12s %6d %6d\n", name, r.Confusion[t][0], r.Confusion[t][1])
	}
	if r.AUC != nil {
		fmt.Fprintf(&b, "\nROC AUC: %.4f\n", *r.AUC)
	} else if r.AUCNote != "" {
		fmt.Fprintf(&b, "\n%s\n", r.AUCNote)
	}
	return b.String()
}
