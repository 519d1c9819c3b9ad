package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is a binary L2-regularized logistic regression with an
// unpenalized intercept and balanced class weights.
type LogisticRegression struct {
	C         float64   `json:"c"`
	MaxIter   int       `json:"max_iter"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

// FitInfo reports how the optimizer finished.
type FitInfo struct {
	Iterations int
	Converged  bool
	Status     string
}

// NewLogisticRegression returns an unfitted model.
func NewLogisticRegression(c float64, maxIter int) *LogisticRegression {
	return &LogisticRegression{C: c, MaxIter: maxIter}
}

// Fit minimizes 0.5*||w||^2 + C * sum_i s_i * logloss_i with L-BFGS, where s_i
// is the balanced weight of sample i's class. y holds 0/1 labels. Hitting the
// iteration limit is reported through FitInfo, not as an error.
func (m *LogisticRegression) Fit(X []SparseVector, y []int, nFeatures int) (FitInfo, error) {
	if len(X) != len(y) {
		return FitInfo{}, fmt.Errorf("got %d rows but %d labels", len(X), len(y))
	}
	if len(X) == 0 {
		return FitInfo{}, errors.New("no training rows")
	}

	var counts [2]int
	for _, label := range y {
		if label != 0 && label != 1 {
			return FitInfo{}, fmt.Errorf("label %d is not 0 or 1", label)
		}
		counts[label]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return FitInfo{}, errors.New("training data must contain both classes")
	}
	n := float64(len(y))
	classWeight := [2]float64{n / (2 * float64(counts[0])), n / (2 * float64(counts[1]))}

	c := m.C
	if c <= 0 {
		c = 1
	}
	maxIter := m.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}

	// theta = [w_0 .. w_{p-1}, b]
	p := nFeatures
	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			w, b := theta[:p], theta[p]
			var loss float64
			for i, x := range X {
				z := x.Dot(w) + b
				loss += classWeight[y[i]] * (softplus(z) - float64(y[i])*z)
			}
			var reg float64
			for _, wj := range w {
				reg += wj * wj
			}
			return 0.5*reg + c*loss
		},
		Grad: func(grad, theta []float64) {
			w, b := theta[:p], theta[p]
			copy(grad[:p], w)
			grad[p] = 0
			for i, x := range X {
				r := c * classWeight[y[i]] * (sigmoid(x.Dot(w)+b) - float64(y[i]))
				for k, j := range x.Indices {
					grad[j] += r * x.Values[k]
				}
				grad[p] += r
			}
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-4,
	}
	result, err := optimize.Minimize(problem, make([]float64, p+1), settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != p+1 {
		if err == nil {
			err = errors.New("optimizer returned no solution")
		}
		return FitInfo{}, fmt.Errorf("failed to fit logistic regression: %w", err)
	}

	m.Coef = append([]float64(nil), result.X[:p]...)
	m.Intercept = result.X[p]
	m.C = c
	m.MaxIter = maxIter

	return FitInfo{
		Iterations: result.MajorIterations,
		Converged:  err == nil && !result.Status.Early(),
		Status:     result.Status.String(),
	}, nil
}

// PredictProba returns P(y=1 | x).
func (m *LogisticRegression) PredictProba(x SparseVector) float64 {
	return sigmoid(x.Dot(m.Coef) + m.Intercept)
}

func (m *LogisticRegression) validate(nFeatures int) error {
	if len(m.Coef) != nFeatures {
		return fmt.Errorf("model has %d coefficients for %d features", len(m.Coef), nFeatures)
	}
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
