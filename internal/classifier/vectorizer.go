// Package classifier holds the model primitives: a TF-IDF vectorizer, an
// L2-regularized logistic regression, the stratified split, evaluation and
// the pipeline artifact codec.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// ErrEmptyVocabulary is returned when no term survives stop-word removal and
// the document-frequency cutoff.
var ErrEmptyVocabulary = errors.New("empty vocabulary; training documents contain only stop words or rare terms")

var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// SparseVector is a row of the document-term matrix. Indices are ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product with a dense weight vector.
func (v SparseVector) Dot(w []float64) float64 {
	var sum float64
	for k, i := range v.Indices {
		sum += v.Values[k] * w[i]
	}
	return sum
}

// Vectorizer turns text into L2-normalized TF-IDF rows.
type Vectorizer struct {
	NGramMin  int       `json:"ngram_min"`
	NGramMax  int       `json:"ngram_max"`
	MinDF     int       `json:"min_df"`
	StopWords bool      `json:"stop_words"`
	Terms     []string  `json:"terms"`
	IDF       []float64 `json:"idf"`

	index map[string]int
}

// NewVectorizer returns an unfitted vectorizer using English stop words.
func NewVectorizer(ngramMax, minDF int) *Vectorizer {
	return &Vectorizer{
		NGramMin:  1,
		NGramMax:  ngramMax,
		MinDF:     minDF,
		StopWords: true,
	}
}

// NumFeatures returns the vocabulary size.
func (v *Vectorizer) NumFeatures() int {
	return len(v.Terms)
}

// analyze tokenizes doc and expands it into n-grams.
func (v *Vectorizer) analyze(doc string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	if v.StopWords {
		kept := tokens[:0]
		for _, t := range tokens {
			if _, stop := englishStopWords[t]; !stop {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}

	minN, maxN := v.NGramMin, v.NGramMax
	if minN < 1 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}

	var grams []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// Fit learns the vocabulary and IDF weights from docs.
func (v *Vectorizer) Fit(docs []string) error {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, g := range v.analyze(doc) {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			df[g]++
		}
	}

	minDF := v.MinDF
	if minDF < 1 {
		minDF = 1
	}
	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= minDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return ErrEmptyVocabulary
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	v.Terms = terms
	v.IDF = idf
	v.buildIndex()
	return nil
}

// FitTransform fits on docs and returns their rows.
func (v *Vectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs), nil
}

// Transform maps docs onto the fitted vocabulary. Unknown terms are ignored;
// a document with no known term becomes the zero vector.
func (v *Vectorizer) Transform(docs []string) []SparseVector {
	if v.index == nil {
		v.buildIndex()
	}
	rows := make([]SparseVector, len(docs))
	for d, doc := range docs {
		counts := make(map[int]float64)
		for _, g := range v.analyze(doc) {
			if i, ok := v.index[g]; ok {
				counts[i]++
			}
		}

		row := SparseVector{
			Indices: make([]int, 0, len(counts)),
			Values:  make([]float64, 0, len(counts)),
		}
		for i := range counts {
			row.Indices = append(row.Indices, i)
		}
		sort.Ints(row.Indices)

		var norm float64
		for _, i := range row.Indices {
			w := counts[i] * v.IDF[i]
			row.Values = append(row.Values, w)
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range row.Values {
				row.Values[k] /= norm
			}
		}
		rows[d] = row
	}
	return rows
}

func (v *Vectorizer) buildIndex() {
	v.index = make(map[string]int, len(v.Terms))
	for i, t := range v.Terms {
		v.index[t] = i
	}
}

func (v *Vectorizer) validate() error {
	if len(v.Terms) == 0 {
		return ErrEmptyVocabulary
	}
	if len(v.Terms) != len(v.IDF) {
		return fmt.Errorf("vectorizer has %d terms but %d idf weights", len(v.Terms), len(v.IDF))
	}
	return nil
}
