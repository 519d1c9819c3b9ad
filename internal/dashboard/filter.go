package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"review-sentiment/internal/models"
)

// AllProducts is the product selector value that disables product filtering.
const AllProducts = "All"

// Filter narrows the corpus shown on the dashboard.
type Filter struct {
	Product string
	From    *time.Time
	To      *time.Time
	Query   string

	// CorpusRange bounds the dates to the corpus min/max when neither From
	// nor To is set, which hides undated reviews.
	CorpusRange bool
}

// ParseFilter builds a Filter from raw form or query values. Dates accept the
// same layouts as CSV ingestion.
func ParseFilter(product, from, to, query string) (Filter, error) {
	f := Filter{Product: product, Query: query}
	if from = strings.TrimSpace(from); from != "" {
		d, err := models.ParseDate(from)
		if err != nil {
			return f, fmt.Errorf("invalid from date %q", from)
		}
		f.From = &d
	}
	if to = strings.TrimSpace(to); to != "" {
		d, err := models.ParseDate(to)
		if err != nil {
			return f, fmt.Errorf("invalid to date %q", to)
		}
		f.To = &d
	}
	return f, nil
}

func (f Filter) dateActive() bool {
	return f.From != nil || f.To != nil
}

// Resolve fills in the corpus date range when CorpusRange asks for it.
func (f Filter) Resolve(corpus []models.Review) Filter {
	if f.CorpusRange && !f.dateActive() {
		f.From, f.To = DateBounds(corpus)
	}
	return f
}

// Match reports whether r passes every active criterion.
func (f Filter) Match(r *models.Review) bool {
	if f.Product != "" && f.Product != AllProducts && r.ProductName() != f.Product {
		return false
	}
	if f.dateActive() {
		if r.Date == nil {
			return false
		}
		if f.From != nil && r.Date.Before(*f.From) {
			return false
		}
		if f.To != nil && r.Date.After(*f.To) {
			return false
		}
	}
	if strings.TrimSpace(f.Query) != "" &&
		!strings.Contains(strings.ToLower(r.Text), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

// Apply returns the reviews matching f, in corpus order.
func (f Filter) Apply(reviews []models.Review) []models.Review {
	view := make([]models.Review, 0, len(reviews))
	for i := range reviews {
		if f.Match(&reviews[i]) {
			view = append(view, reviews[i])
		}
	}
	return view
}

// Products lists the distinct non-null products, sorted.
func Products(reviews []models.Review) []string {
	seen := make(map[string]struct{})
	for i := range reviews {
		if reviews[i].Product != nil {
			seen[*reviews[i].Product] = struct{}{}
		}
	}
	products := make([]string, 0, len(seen))
	for p := range seen {
		products = append(products, p)
	}
	sort.Strings(products)
	return products
}

// DateBounds returns the earliest and latest review dates, or nils when no
// review carries a date.
func DateBounds(reviews []models.Review) (*time.Time, *time.Time) {
	var lo, hi *time.Time
	for i := range reviews {
		d := reviews[i].Date
		if d == nil {
			continue
		}
		if lo == nil || d.Before(*lo) {
			lo = d
		}
		if hi == nil || d.After(*hi) {
			hi = d
		}
	}
	return lo, hi
}
