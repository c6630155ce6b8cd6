package planner

import "errors"

// ErrInvalidRequest is returned when a Request is missing required parts.
var ErrInvalidRequest = errors.New("invalid plan request")
