// Package sampler turns grid combinations into concrete hyperparameter
// assignments by drawing one value from every range.
package sampler

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/jobplan/internal/domain/hyperspace"
	"github.com/okian/jobplan/internal/domain/model"
)

// Sampler resolves combinations. It is not safe for concurrent use.
type Sampler struct {
	rng *rand.Rand
}

// New creates a Sampler drawing from rng.
func New(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// NewSeeded creates a Sampler with its own source. A zero seed means a fresh
// time-based seed, so repeated runs explore different points.
func NewSeeded(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return New(rand.New(rand.NewSource(seed))) //nolint:gosec // search diversity, not security
}

// Resolve draws every range in combo and returns the point numbered ordinal.
// names labels the params and must match combo in length.
func (s *Sampler) Resolve(ordinal int, names []string, combo hyperspace.Combination, threshold float64) (model.GridPoint, error) {
	if len(names) != len(combo) {
		return model.GridPoint{}, fmt.Errorf("%d names for %d values", len(names), len(combo))
	}

	params := make([]model.Param, len(combo))
	for i, v := range combo {
		n, err := s.draw(v)
		if err != nil {
			return model.GridPoint{}, fmt.Errorf("dimension %q: %w", names[i], err)
		}
		params[i] = model.Param{Name: names[i], Value: n.Value, Integer: n.Integer}
	}

	return model.GridPoint{
		Ordinal:   ordinal,
		Params:    params,
		Threshold: threshold,
	}, nil
}

func (s *Sampler) draw(v hyperspace.Value) (hyperspace.Number, error) {
	if !v.IsRange() {
		return v.Scalar(), nil
	}
	if err := v.Validate(); err != nil {
		return hyperspace.Number{}, err
	}

	lo, hi := v.Bounds()
	if lo.Integer {
		a, b := int64(lo.Value), int64(hi.Value)
		span := b - a + 1
		if span <= 0 {
			return hyperspace.Number{}, fmt.Errorf("%w: integer range %s too wide to sample", hyperspace.ErrInvalidRange, v)
		}
		return hyperspace.Number{Value: float64(a + s.rng.Int63n(span)), Integer: true}, nil
	}
	return hyperspace.Number{Value: lo.Value + s.rng.Float64()*(hi.Value-lo.Value)}, nil
}
