// Package hyperspace declares the hyperparameter search grid and enumerates
// its Cartesian product.
package hyperspace

import (
	"fmt"
	"iter"
)

// Dimension is a named, ordered list of candidate values.
type Dimension struct {
	Name   string
	Values []Value
}

// Combination holds one value per dimension, in dimension order.
type Combination []Value

// Space is an ordered, immutable set of dimensions.
type Space struct {
	dims []Dimension
}

// New validates dims and returns a Space that enumerates them in the given
// order.
func New(dims ...Dimension) (*Space, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrInvalidSpace)
	}
	seen := make(map[string]struct{}, len(dims))
	out := make([]Dimension, len(dims))
	for i, d := range dims {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: dimension %d has no name", ErrInvalidSpace, i)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate dimension %q", ErrInvalidSpace, d.Name)
		}
		seen[d.Name] = struct{}{}
		if len(d.Values) == 0 {
			return nil, fmt.Errorf("%w: dimension %q has no values", ErrInvalidSpace, d.Name)
		}
		for _, v := range d.Values {
			if err := v.Validate(); err != nil {
				return nil, fmt.Errorf("dimension %q: %w", d.Name, err)
			}
		}
		out[i] = Dimension{Name: d.Name, Values: append([]Value(nil), d.Values...)}
	}
	return &Space{dims: out}, nil
}

// Dimensions returns a copy of the dimensions in enumeration order.
func (s *Space) Dimensions() []Dimension {
	out := make([]Dimension, len(s.dims))
	for i, d := range s.dims {
		out[i] = Dimension{Name: d.Name, Values: append([]Value(nil), d.Values...)}
	}
	return out
}

// Names returns the dimension names in enumeration order.
func (s *Space) Names() []string {
	names := make([]string, len(s.dims))
	for i, d := range s.dims {
		names[i] = d.Name
	}
	return names
}

// Cardinality is the product of the dimension sizes.
func (s *Space) Cardinality() int {
	n := 1
	for _, d := range s.dims {
		n *= len(d.Values)
	}
	return n
}

// Enumerate yields every combination, first dimension outermost and last
// dimension varying fastest. The sequence can be ranged over repeatedly and
// never skips or merges equal values.
func (s *Space) Enumerate() iter.Seq[Combination] {
	return func(yield func(Combination) bool) {
		idx := make([]int, len(s.dims))
		for {
			combo := make(Combination, len(s.dims))
			for i, d := range s.dims {
				combo[i] = d.Values[idx[i]]
			}
			if !yield(combo) {
				return
			}

			// Odometer increment from the innermost dimension.
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(s.dims[i].Values) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}
