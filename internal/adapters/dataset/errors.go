package dataset

import "errors"

// ErrMalformedInput is returned when a project file cannot be parsed.
var ErrMalformedInput = errors.New("malformed dataset input")
