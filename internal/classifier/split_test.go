package classifier

import (
	"reflect"
	"sort"
	"testing"
)

func labelsOf(zeros, ones int) []int {
	labels := make([]int, 0, zeros+ones)
	for i := 0; i < zeros; i++ {
		labels = append(labels, 0)
	}
	for i := 0; i < ones; i++ {
		labels = append(labels, 1)
	}
	return labels
}

func TestStratifiedSplitPreservesProportions(t *testing.T) {
	labels := labelsOf(10, 15)
	train, test, err := StratifiedSplit(labels, 0.2, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit: %v", err)
	}
	if len(test) != 5 || len(train) != 20 {
		t.Fatalf("sizes = %d/%d, want 20/5", len(train), len(test))
	}

	var testCounts [2]int
	for _, i := range test {
		testCounts[labels[i]]++
	}
	if testCounts != [2]int{2, 3} {
		t.Errorf("test class counts = %v, want [2 3]", testCounts)
	}

	if !sort.IntsAreSorted(train) || !sort.IntsAreSorted(test) {
		t.Error("indices not sorted")
	}
	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		if seen[i] {
			t.Fatalf("index %d in both splits", i)
		}
		seen[i] = true
	}
	if len(seen) != len(labels) {
		t.Errorf("split covers %d of %d samples", len(seen), len(labels))
	}
}

func TestStratifiedSplitLargestRemainder(t *testing.T) {
	labels := labelsOf(7, 3)
	_, test, err := StratifiedSplit(labels, 0.2, 1)
	if err != nil {
		t.Fatalf("StratifiedSplit: %v", err)
	}
	var counts [2]int
	for _, i := range test {
		counts[labels[i]]++
	}
	if counts != [2]int{1, 1} {
		t.Errorf("test class counts = %v, want [1 1]", counts)
	}
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	labels := labelsOf(30, 20)
	train1, test1, err := StratifiedSplit(labels, 0.2, 42)
	if err != nil {
		t.Fatal(err)
	}
	train2, test2, err := StratifiedSplit(labels, 0.2, 42)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(train1, train2) || !reflect.DeepEqual(test1, test2) {
		t.Fatal("same seed produced different splits")
	}
}

func TestStratifiedSplitErrors(t *testing.T) {
	tests := []struct {
		name     string
		labels   []int
		testSize float64
	}{
		{"single class", labelsOf(0, 10), 0.2},
		{"class with one member", labelsOf(1, 10), 0.2},
		{"bad test size", labelsOf(5, 5), 1.5},
		{"too few samples", labelsOf(2, 2), 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := StratifiedSplit(tt.labels, tt.testSize, 42); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
