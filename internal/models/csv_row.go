package models

// CSVRow is a raw ingestion row before coercion. Only review_id and text are
// required; the rest may be blank.
type CSVRow struct {
	Line     int    `validate:"-"`
	ReviewID string `validate:"required"`
	Date     string `validate:"omitempty,review_date"`
	Product  string
	Stars    string `validate:"omitempty,stars"`
	Text     string `validate:"required"`
	Label    string `validate:"omitempty,max=64"`
}
