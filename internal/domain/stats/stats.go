// Package stats computes order statistics over validation scores.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Sample is an immutable, sorted collection of validation scores.
type Sample struct {
	sorted []float64
}

// NewSample copies and sorts values. NaN entries are rejected because they
// have no position in the ordering.
func NewSample(values []float64) (*Sample, error) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	for i, v := range sorted {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("score at row %d is NaN", i)
		}
	}
	sort.Float64s(sorted)
	return &Sample{sorted: sorted}, nil
}

// Len returns the number of scores.
func (s *Sample) Len() int {
	if s == nil {
		return 0
	}
	return len(s.sorted)
}

// Values returns a copy of the scores in ascending order.
func (s *Sample) Values() []float64 {
	out := make([]float64, s.Len())
	if s != nil {
		copy(out, s.sorted)
	}
	return out
}

// Percentile returns the value at percentile p (0-100) using linear
// interpolation between the closest ranks: index = p/100*(n-1).
func (s *Sample) Percentile(p float64) (float64, error) {
	n := s.Len()
	if n == 0 {
		return 0, ErrEmptySample
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, fmt.Errorf("%w: %g", ErrPercentileRange, p)
	}

	index := (p / 100.0) * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return s.sorted[lower], nil
	}

	weight := index - float64(lower)
	return s.sorted[lower]*(1-weight) + s.sorted[upper]*weight, nil
}

// CountBelow returns how many scores are strictly less than threshold.
func (s *Sample) CountBelow(threshold float64) int {
	if s.Len() == 0 {
		return 0
	}
	return sort.SearchFloat64s(s.sorted, threshold)
}
