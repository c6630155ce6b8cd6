package schedule

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidSchedule     = errors.New("invalid success schedule")
	ErrDecayNotImplemented = errors.New("decay not implemented")
	ErrUnknownDecay        = errors.New("unknown decay mode")
)
