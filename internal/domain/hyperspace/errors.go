package hyperspace

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidRange     = errors.New("invalid hyperparameter range")
	ErrInvalidSpace     = errors.New("invalid hyperparameter space")
	ErrUnknownDimension = errors.New("unknown hyperparameter dimension")
)
