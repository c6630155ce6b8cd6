package model

import "errors"

// ErrInvalidContext is returned when an IterationContext violates its invariants.
var ErrInvalidContext = errors.New("invalid iteration context")
