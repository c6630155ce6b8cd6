// Package dataset reads the candidate counts and validation scores of a
// screening project.
package dataset

import (
	"context"

	"github.com/okian/jobplan/internal/domain/stats"
)

// Reader provides the inputs a plan is computed from.
type Reader interface {
	// RowCount returns the total number of candidate molecules.
	RowCount(ctx context.Context) (int, error)
	// LoadScores returns the validation scores used to plan iteration.
	LoadScores(ctx context.Context, iteration int) (*stats.Sample, error)
}
