// Package dataset reads review CSV files into typed reviews.
//
// The expected header is review_id, date, product, stars, text, label in any
// order. review_id and text are mandatory; the other columns may be absent or
// blank. Every row is validated and coerced before anything is returned, so a
// single bad row fails the whole file.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"review-sentiment/internal/models"

	"github.com/go-playground/validator/v10"
)

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Columns in their canonical order.
var Columns = []string{"review_id", "date", "product", "stars", "text", "label"}

var requiredColumns = []string{"review_id", "text"}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("review_date", func(fl validator.FieldLevel) bool {
			_, err := models.ParseDate(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("stars", func(fl validator.FieldLevel) bool {
			_, err := ParseStars(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// RowError describes why a CSV row was rejected.
type RowError struct {
	Line  int
	Field string
	Rule  string
	Value string
}

func (e *RowError) Error() string {
	switch e.Rule {
	case "required":
		return fmt.Sprintf("line %d: %s is required", e.Line, e.Field)
	case "review_date":
		return fmt.Sprintf("line %d: malformed date %q", e.Line, e.Value)
	case "stars":
		return fmt.Sprintf("line %d: stars must be an integer, got %q", e.Line, e.Value)
	default:
		return fmt.Sprintf("line %d: %s failed %s validation", e.Line, e.Field, e.Rule)
	}
}

var fieldNames = map[string]string{
	"ReviewID": "review_id",
	"Date":     "date",
	"Product":  "product",
	"Stars":    "stars",
	"Text":     "text",
	"Label":    "label",
}

// ReadFile reads and validates a CSV file from disk.
func ReadFile(path string) ([]models.Review, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read parses, validates and coerces every row of r.
func Read(r io.Reader) ([]models.Review, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}

	reviews := make([]models.Review, 0, len(rows))
	for _, row := range rows {
		review, err := Coerce(row)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

// ReadRows parses r into raw rows without validating them.
func ReadRows(r io.Reader) ([]models.CSVRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty csv", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []models.CSVRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		rows = append(rows, models.CSVRow{
			Line:     line,
			ReviewID: strings.TrimSpace(field(record, "review_id")),
			Date:     strings.TrimSpace(field(record, "date")),
			Product:  field(record, "product"),
			Stars:    strings.TrimSpace(field(record, "stars")),
			Text:     field(record, "text"),
			Label:    strings.TrimSpace(field(record, "label")),
		})
	}
	return rows, nil
}

// Coerce validates row and converts it to a typed review.
func Coerce(row models.CSVRow) (models.Review, error) {
	check := row
	if strings.TrimSpace(check.Text) == "" {
		check.Text = ""
	}
	if err := getValidator().Struct(check); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return models.Review{}, &RowError{
				Line:  row.Line,
				Field: fieldNames[fe.Field()],
				Rule:  fe.Tag(),
				Value: fmt.Sprint(fe.Value()),
			}
		}
		return models.Review{}, fmt.Errorf("line %d: %w", row.Line, err)
	}

	review := models.Review{
		ReviewID: row.ReviewID,
		Text:     row.Text,
	}
	if row.Date != "" {
		d, _ := models.ParseDate(row.Date)
		review.Date = &d
	}
	if row.Product != "" {
		product := row.Product
		review.Product = &product
	}
	if row.Stars != "" {
		stars, _ := ParseStars(row.Stars)
		review.Stars = &stars
	}
	if row.Label != "" {
		label := row.Label
		review.Label = &label
	}
	return review, nil
}

// ParseStars coerces "4" or "4.0" to 4; fractional values and values outside
// the int32 range are rejected.
func ParseStars(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}
