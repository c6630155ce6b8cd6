// Package sink persists job descriptors for the execution system.
package sink

import (
	"context"

	"github.com/okian/jobplan/internal/domain/model"
)

// Sink receives the descriptors of one iteration.
type Sink interface {
	// Clear removes every artifact previously written for iteration and
	// returns how many were removed.
	Clear(ctx context.Context, iteration int) (int, error)
	// Write persists one descriptor. A descriptor is either fully written or
	// not written at all.
	Write(ctx context.Context, d model.JobDescriptor) error
}
