package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions sample indices into train and test sets while
// preserving class proportions. The test set holds ceil(testSize*n) samples,
// apportioned across classes by largest remainder; each class is shuffled
// with a PRNG seeded from seed. Both returned slices are sorted ascending.
func StratifiedSplit(labels []int, testSize float64, seed int64) ([]int, []int, error) {
	n := len(labels)
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %.2f must be between 0 and 1", testSize)
	}

	byClass := make(map[int][]int)
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	if len(classes) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 classes to split, got %d", len(classes))
	}
	for _, label := range classes {
		if len(byClass[label]) < 2 {
			return nil, nil, fmt.Errorf("class %d has only %d member; every class needs at least 2", label, len(byClass[label]))
		}
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < len(classes) || n-nTest < len(classes) {
		return nil, nil, fmt.Errorf("test size %d is incompatible with %d samples in %d classes", nTest, n, len(classes))
	}

	alloc := allocate(classes, byClass, nTest, n)

	rng := rand.New(rand.NewSource(seed))
	var train, test []int
	for k, label := range classes {
		members := byClass[label]
		perm := rng.Perm(len(members))
		for j, p := range perm {
			if j < alloc[k] {
				test = append(test, members[p])
			} else {
				train = append(train, members[p])
			}
		}
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// allocate distributes nTest slots proportionally to class size. Leftover
// slots go to the largest fractional remainders, ties to the lower class.
func allocate(classes []int, byClass map[int][]int, nTest, n int) []int {
	alloc := make([]int, len(classes))
	remainders := make([]float64, len(classes))
	assigned := 0
	for k, label := range classes {
		exact := float64(nTest) * float64(len(byClass[label])) / float64(n)
		alloc[k] = int(math.Floor(exact))
		remainders[k] = exact - float64(alloc[k])
		assigned += alloc[k]
	}

	order := make([]int, len(classes))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for _, k := range order {
		if assigned >= nTest {
			break
		}
		alloc[k]++
		assigned++
	}

	// keep at least one sample per class on each side
	for k, label := range classes {
		size := len(byClass[label])
		if alloc[k] == 0 {
			alloc[k] = 1
		}
		if alloc[k] >= size {
			alloc[k] = size - 1
		}
	}
	return alloc
}
