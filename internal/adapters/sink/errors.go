package sink

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrWriteDescriptor wraps failures to persist a descriptor.
	ErrWriteDescriptor = errors.New("write job descriptor failed")
	// ErrInvalidJobName is returned for job names unsafe in an #SBATCH line.
	ErrInvalidJobName = errors.New("invalid job name")
)
