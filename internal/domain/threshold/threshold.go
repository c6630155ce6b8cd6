// Package threshold converts a success count into a score cutoff.
package threshold

import (
	"context"
	"fmt"

	"github.com/okian/jobplan/internal/domain/stats"
	"github.com/okian/jobplan/pkg/logger"
)

// Result is the resolved cutoff plus the figures that justify it.
type Result struct {
	Percentile float64 // percentile used, 0-100
	Threshold  float64 // score at Percentile
	Below      int     // scores strictly below Threshold
	Target     int     // requested success count
	Total      int     // sample size
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for the audit line.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolver derives the score threshold for an iteration.
type Resolver struct {
	logger logger.Logger
}

// New creates a Resolver. Without WithLogger it uses the global logger.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("threshold")
	}
	return r
}

// Resolve returns the score at percentile 100*target/len(sample).
func (r *Resolver) Resolve(ctx context.Context, sample *stats.Sample, target int) (Result, error) {
	total := sample.Len()
	if total == 0 {
		return Result{}, stats.ErrEmptySample
	}
	if target < 0 || target > total {
		return Result{}, fmt.Errorf("target %d outside sample of %d", target, total)
	}

	percentile := 100 * float64(target) / float64(total)
	cutoff, err := sample.Percentile(percentile)
	if err != nil {
		return Result{}, fmt.Errorf("percentile %.4f: %w", percentile, err)
	}

	res := Result{
		Percentile: percentile,
		Threshold:  cutoff,
		Below:      sample.CountBelow(cutoff),
		Target:     target,
		Total:      total,
	}
	r.logger.Info(ctx, "resolved score threshold",
		logger.Float64("percentile", res.Percentile),
		logger.Float64("threshold", res.Threshold),
		logger.Int("below_threshold", res.Below),
		logger.Int("target", res.Target),
		logger.Int("total", res.Total),
	)
	return res, nil
}
