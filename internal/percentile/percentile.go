// Package percentile computes historical percentile statistics of n-th
// order differences over the pre-anchor slice of a derived series.
//
// Differencing follows the pair-dropping rule: each pass keeps only pairs
// with both operands present, so the sequence shrinks by one per pass and
// nulls never poison downstream orders. Percentile values use linear
// interpolation between order statistics; percentile ranks weight ties at
// one half.
package percentile

import (
	"math"
	"sort"
)

// Orders are the difference orders carried in the bucket table.
var Orders = []int{2, 3, 4, 5}

// Levels are the fixed percentile levels of the bucket table.
var Levels = []float64{1, 5, 10, 25, 50, 75, 90, 95, 99}

// Differences applies the first difference to values order times. Each pass
// drops pairs with a missing operand, so a null shortens the output rather
// than propagating. Non-finite results are discarded.
func Differences(values []*float64, order int) []float64 {
	current := values
	for pass := 0; pass < order; pass++ {
		next := make([]*float64, 0, maxInt(len(current)-1, 0))
		for i := 1; i < len(current); i++ {
			if current[i] == nil || current[i-1] == nil {
				continue
			}
			d := *current[i] - *current[i-1]
			next = append(next, &d)
		}
		current = next
	}

	out := make([]float64, 0, len(current))
	for _, v := range current {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		out = append(out, *v)
	}
	return out
}

// Percentile returns the level-th percentile of values using linear
// interpolation between order statistics, or nil for empty input.
func Percentile(values []float64, level float64) *float64 {
	n := len(values)
	if n == 0 {
		return nil
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := level / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	if lo == hi {
		return &sorted[lo]
	}
	frac := pos - float64(lo)
	v := sorted[lo] + (sorted[hi]-sorted[lo])*frac
	return &v
}

// Rank returns where target falls within values as a percentile, counting
// equal observations at half weight: (below + 0.5*equal) / n * 100. Nil for
// empty input.
func Rank(values []float64, target float64) *float64 {
	n := len(values)
	if n == 0 {
		return nil
	}

	below, equal := 0, 0
	for _, v := range values {
		switch {
		case v < target:
			below++
		case v == target:
			equal++
		}
	}
	r := (float64(below) + 0.5*float64(equal)) / float64(n) * 100
	return &r
}

// Bucket holds the interpolated percentile values for one difference order,
// plus the rank of the latest difference within its own history.
type Bucket struct {
	Order      int
	Values     map[float64]*float64
	LatestRank *float64
}

// Buckets computes the full bucket table over the pre-anchor history of a
// derived reference series. history is the derived series already truncated
// at the anchor.
func Buckets(history []*float64) []Bucket {
	out := make([]Bucket, 0, len(Orders))
	for _, order := range Orders {
		diffs := Differences(history, order)

		b := Bucket{Order: order, Values: make(map[float64]*float64, len(Levels))}
		for _, level := range Levels {
			b.Values[level] = Percentile(diffs, level)
		}
		if len(diffs) > 0 {
			b.LatestRank = Rank(diffs, diffs[len(diffs)-1])
		}
		out = append(out, b)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
