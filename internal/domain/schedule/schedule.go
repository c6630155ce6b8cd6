// Package schedule decides how many top-scoring candidates count as
// successes in a given iteration.
package schedule

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/jobplan/internal/domain/model"
)

// MinimumTarget is the smallest success count the scheduler will return;
// fewer hits leave the classifier with too few positives to learn from.
const MinimumTarget = 50

// Decay mode names accepted by ParseDecay.
const (
	ModeLinear      = "linear"
	ModeExponential = "exponential"
	ModePolynomial  = "polynomial"
)

// Decay maps an iteration after the first to a raw success count.
// Implementations must return last at the final iteration.
type Decay interface {
	Target(ictx model.IterationContext, first, last int) (float64, error)
	Name() string
}

// Linear interpolates between first and last as the iteration index runs
// from 1 to TotalIterations.
type Linear struct{}

// Name implements Decay.
func (Linear) Name() string { return ModeLinear }

// Target implements Decay.
func (Linear) Target(ictx model.IterationContext, first, last int) (float64, error) {
	it := float64(ictx.Iteration)
	total := float64(ictx.TotalIterations)
	f, l := float64(first), float64(last)
	return ((l-f)*it + total*f - l) / (total - 1), nil
}

// Exponential is a placeholder for an exponential decay with the given base.
type Exponential struct {
	Base float64
}

// Name implements Decay.
func (Exponential) Name() string { return ModeExponential }

// Target always fails; no exponential schedule has been agreed on. The
// scheduler never calls it for iteration 1.
func (e Exponential) Target(model.IterationContext, int, int) (float64, error) {
	return 0, fmt.Errorf("%w: exponential (base %g)", ErrDecayNotImplemented, e.Base)
}

// Polynomial is a placeholder for a polynomial decay of the given exponent.
type Polynomial struct {
	Exponent float64
}

// Name implements Decay.
func (Polynomial) Name() string { return ModePolynomial }

// Target always fails; no polynomial schedule has been agreed on. The
// scheduler never calls it for iteration 1.
func (p Polynomial) Target(model.IterationContext, int, int) (float64, error) {
	return 0, fmt.Errorf("%w: polynomial (exponent %g)", ErrDecayNotImplemented, p.Exponent)
}

// ParseDecay returns the Decay selected by mode. An empty mode means linear.
func ParseDecay(mode string, base, exponent float64) (Decay, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeLinear:
		return Linear{}, nil
	case ModeExponential:
		return Exponential{Base: base}, nil
	case ModePolynomial:
		return Polynomial{Exponent: exponent}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDecay, mode)
	}
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithDecay sets the decay strategy.
func WithDecay(d Decay) Option {
	return func(s *Scheduler) {
		if d != nil {
			s.decay = d
		}
	}
}

// Scheduler computes the per-iteration success count.
type Scheduler struct {
	decay Decay
}

// New creates a Scheduler; linear decay unless overridden.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{decay: Linear{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decay returns the configured strategy.
func (s *Scheduler) Decay() Decay { return s.decay }

// ComputeTarget returns the success count for ictx over a sample of
// sampleSize scores.
func (s *Scheduler) ComputeTarget(ictx model.IterationContext, sampleSize int) (int, error) {
	if err := ictx.Validate(); err != nil {
		return 0, err
	}
	if sampleSize <= 0 {
		return 0, fmt.Errorf("%w: sample size must be positive, got %d", ErrInvalidSchedule, sampleSize)
	}

	first := int(math.Round(ictx.FirstPercent / 100 * float64(sampleSize)))
	last := int(math.Round(ictx.LastPercent / 100 * float64(sampleSize)))

	// Iteration 1 always takes the first count; the decay shapes later ones.
	raw := float64(first)
	if ictx.Iteration > 1 {
		var err error
		if raw, err = s.decay.Target(ictx, first, last); err != nil {
			return 0, err
		}
	}

	target := max(int(math.Round(raw)), MinimumTarget)
	if target >= sampleSize {
		return 0, fmt.Errorf("%w: target %d must be less than sample size %d", ErrInvalidSchedule, target, sampleSize)
	}
	return target, nil
}
