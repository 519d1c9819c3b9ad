package models

// Prediction is the classifier's judgment for one input text.
type Prediction struct {
	Text      string  `json:"text"`
	ProbPos   float64 `json:"prob_pos"`
	ProbNeg   float64 `json:"prob_neg"`
	Predicted Label   `json:"predicted"`
}

// NewPrediction builds a Prediction from the positive-class probability.
func NewPrediction(text string, probPos float64) Prediction {
	predicted := LabelNegative
	if probPos >= 0.5 {
		predicted = LabelPositive
	}
	return Prediction{
		Text:      text,
		ProbPos:   probPos,
		ProbNeg:   1 - probPos,
		Predicted: predicted,
	}
}

// PredictRequest for single or batch classification over the JSON API
type PredictRequest struct {
	Texts []string `json:"texts" binding:"required,min=1"`
}
