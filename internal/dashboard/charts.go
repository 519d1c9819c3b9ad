package dashboard

import (
	"fmt"
	"sort"

	"review-sentiment/internal/models"
)

// HistogramBins is the number of probability bins drawn on the dashboard.
const HistogramBins = 20

// LabelCount is one bar of the sentiment distribution.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Bin is one histogram bucket covering [Lo, Hi); the last bucket includes 1.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Distribution counts predicted labels, largest first, ties by label.
func Distribution(preds []models.Prediction) []LabelCount {
	counts := make(map[string]int)
	for _, p := range preds {
		counts[string(p.Predicted)]++
	}
	dist := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		dist = append(dist, LabelCount{Label: label, Count: n})
	}
	sort.Slice(dist, func(i, j int) bool {
		if dist[i].Count != dist[j].Count {
			return dist[i].Count > dist[j].Count
		}
		return dist[i].Label < dist[j].Label
	})
	return dist
}

// Histogram buckets prob_pos into n equal-width bins over [0, 1].
func Histogram(preds []models.Prediction, n int) []Bin {
	if n < 1 {
		n = 1
	}
	bins := make([]Bin, n)
	width := 1.0 / float64(n)
	for i := range bins {
		bins[i].Lo = float64(i) * width
		bins[i].Hi = float64(i+1) * width
	}
	for _, p := range preds {
		i := int(p.ProbPos * float64(n))
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}
	return bins
}

// Bar is a rectangle in chart coordinates.
type Bar struct {
	X, Y, W, H float64
	Label      string
	Count      int
}

// Chart holds the precomputed geometry of an SVG bar chart.
type Chart struct {
	Title  string
	Width  float64
	Height float64
	Bars   []Bar
	Max    int
	XLabel string
}

const (
	chartWidth  = 480.0
	chartHeight = 240.0
	chartPad    = 30.0
)

// DistributionChart lays out the sentiment distribution.
func DistributionChart(dist []LabelCount) Chart {
	labels := make([]string, len(dist))
	counts := make([]int, len(dist))
	for i, d := range dist {
		labels[i] = d.Label
		counts[i] = d.Count
	}
	return layout("Predicted Sentiment Distribution", "sentiment", labels, counts, 0.2)
}

// HistogramChart lays out the positive-probability histogram.
func HistogramChart(bins []Bin) Chart {
	labels := make([]string, len(bins))
	counts := make([]int, len(bins))
	for i, b := range bins {
		labels[i] = fmt.Sprintf("%.2f-%.2f", b.Lo, b.Hi)
		counts[i] = b.Count
	}
	return layout("Histogram of Positive Probability", "P(Positive)", labels, counts, 0.05)
}

func layout(title, xLabel string, labels []string, counts []int, gap float64) Chart {
	chart := Chart{Title: title, Width: chartWidth, Height: chartHeight, XLabel: xLabel}
	for _, n := range counts {
		if n > chart.Max {
			chart.Max = n
		}
	}
	if len(counts) == 0 || chart.Max == 0 {
		return chart
	}

	plotW := chartWidth - 2*chartPad
	plotH := chartHeight - 2*chartPad
	slot := plotW / float64(len(counts))
	for i, n := range counts {
		h := plotH * float64(n) / float64(chart.Max)
		chart.Bars = append(chart.Bars, Bar{
			X:     chartPad + float64(i)*slot + slot*gap/2,
			Y:     chartPad + plotH - h,
			W:     slot * (1 - gap),
			H:     h,
			Label: labels[i],
			Count: n,
		})
	}
	return chart
}
