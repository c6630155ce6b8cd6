package hyperspace

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// Dimension names, listed in enumeration order. The same order is used for
// the training-script arguments.
const (
	OverSampleSize = "oss"
	BatchSize      = "bs"
	NumUnits       = "num_units"
	Dropout        = "dropout"
	LearnRate      = "learn_rate"
	BinArray       = "bin_array"
	Weight         = "wt"
)

// Order is the fixed dimension order of the built-in spaces.
var Order = []string{OverSampleSize, BatchSize, NumUnits, Dropout, LearnRate, BinArray, Weight}

// Tier selects Values when the configured hyperparameter count is below Below.
type Tier struct {
	Below  int
	Values []Value
}

// Policy is a top-to-bottom table of tiers with a fallback.
type Policy struct {
	Tiers   []Tier
	Default []Value
}

// Select returns the values of the first tier whose bound exceeds n.
func (p Policy) Select(n int) []Value {
	for _, t := range p.Tiers {
		if n < t.Below {
			return t.Values
		}
	}
	return p.Default
}

// BatchSizePolicy: one batch size for small budgets, two from 144 upwards.
var BatchSizePolicy = Policy{
	Tiers:   []Tier{{Below: 144, Values: []Value{Int(256)}}},
	Default: []Value{Int(128), Int(256)},
}

// OverSamplePolicy: sampled ranges below 48, two fixed sizes below 72,
// three fixed sizes otherwise.
var OverSamplePolicy = Policy{
	Tiers: []Tier{
		{Below: 48, Values: []Value{IntRange(10, 20), IntRange(20, 30), IntRange(30, 40)}},
		{Below: 72, Values: []Value{Int(5), Int(10)}},
	},
	Default: []Value{Int(5), Int(10), Int(20)},
}

// continuousRanges are the bounds used by Continuous for every dimension.
var continuousRanges = map[string]Value{
	OverSampleSize: IntRange(5, 20),
	BatchSize:      IntRange(128, 256),
	NumUnits:       IntRange(100, 2000),
	Dropout:        RealRange(0.2, 0.5),
	LearnRate:      RealRange(0.0001, 0.0001),
	BinArray:       IntRange(2, 3),
	Weight:         IntRange(2, 3),
}

// Discrete builds the default grid for a requested hyperparameter count.
func Discrete(count int) (*Space, error) {
	return New(
		Dimension{Name: OverSampleSize, Values: OverSamplePolicy.Select(count)},
		Dimension{Name: BatchSize, Values: BatchSizePolicy.Select(count)},
		Dimension{Name: NumUnits, Values: []Value{IntRange(900, 1150), IntRange(1150, 1400)}},
		Dimension{Name: Dropout, Values: []Value{RealRange(0.6, 0.75), RealRange(0.75, 0.9)}},
		Dimension{Name: LearnRate, Values: []Value{RealRange(0.00014, 0.00020)}},
		Dimension{Name: BinArray, Values: []Value{Int(2), Int(3)}},
		Dimension{Name: Weight, Values: []Value{RealRange(2.20, 5.0)}},
	)
}

// PerDimension returns round(count^(1/7)), the number of draws each
// dimension gets in continuous mode.
func PerDimension(count int) int {
	return int(math.Round(math.Pow(float64(count), 1.0/float64(len(Order)))))
}

// Continuous replaces every dimension with PerDimension(count) copies of a
// fixed range, so each grid point draws every value independently.
func Continuous(count int) (*Space, error) {
	k := PerDimension(count)
	if k < 1 {
		return nil, fmt.Errorf("%w: hyperparameter count %d gives no values per dimension", ErrInvalidSpace, count)
	}
	dims := make([]Dimension, len(Order))
	for i, name := range Order {
		values := make([]Value, k)
		for j := range values {
			values[j] = continuousRanges[name]
		}
		dims[i] = Dimension{Name: name, Values: values}
	}
	return New(dims...)
}

// Build returns the continuous or discrete space for count and replaces the
// values of any dimension named in overrides. Override values are decoded
// with ParseValue.
func Build(count int, continuous bool, overrides map[string][]any) (*Space, error) {
	var (
		space *Space
		err   error
	)
	if continuous {
		space, err = Continuous(count)
	} else {
		space, err = Discrete(count)
	}
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return space, nil
	}

	dims := space.Dimensions()
	byName := make(map[string]int, len(dims))
	for i, d := range dims {
		byName[d.Name] = i
	}
	claimed := make(map[int]string, len(overrides))
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		raw := overrides[name]
		i, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, name)
		}
		if prev, dup := claimed[i]; dup {
			return nil, fmt.Errorf("%w: overrides %q and %q both set dimension %q", ErrInvalidSpace, prev, name, dims[i].Name)
		}
		claimed[i] = name
		values := make([]Value, 0, len(raw))
		for _, r := range raw {
			v, err := ParseValue(r)
			if err != nil {
				return nil, fmt.Errorf("dimension %q: %w", name, err)
			}
			values = append(values, v)
		}
		dims[i].Values = values
	}
	return New(dims...)
}
