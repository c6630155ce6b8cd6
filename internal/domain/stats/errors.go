package stats

import "errors"

// Sentinel error kinds for this package.
var (
	ErrEmptySample     = errors.New("empty score sample")
	ErrPercentileRange = errors.New("percentile out of range [0, 100]")
)
