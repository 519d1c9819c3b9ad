package models

import (
	"strings"
	"time"
)

// Label is the two-class sentiment taxonomy used for training and prediction.
type Label string

const (
	LabelPositive Label = "POS"
	LabelNegative Label = "NEG"
)

// NormalizeLabel maps a raw label onto the taxonomy: anything starting with
// "P" (case-insensitive) is POS, everything else NEG.
func NormalizeLabel(raw string) Label {
	if strings.HasPrefix(strings.ToUpper(raw), "P") {
		return LabelPositive
	}
	return LabelNegative
}

// Review represents one stored review, labeled or not.
type Review struct {
	ReviewID string     `json:"review_id"`
	Date     *time.Time `json:"date,omitempty"`
	Product  *string    `json:"product,omitempty"`
	Stars    *int       `json:"stars,omitempty"`
	Text     string     `json:"text"`
	Label    *string    `json:"label,omitempty"` // nil for the unlabeled corpus
}

// IsLabeled reports whether the review can be used for training.
func (r *Review) IsLabeled() bool {
	return r.Label != nil && *r.Label != ""
}

// ProductName returns the product or "" when unset.
func (r *Review) ProductName() string {
	if r.Product == nil {
		return ""
	}
	return *r.Product
}

// DateString formats the date as YYYY-MM-DD, or "" when unset.
func (r *Review) DateString() string {
	if r.Date == nil {
		return ""
	}
	return r.Date.Format(DateLayout)
}
