// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
)

// IterationContext describes where the current run sits in the screening
// campaign. Construct it with NewIterationContext.
type IterationContext struct {
	Iteration       int     // 1-based iteration index
	TotalIterations int     // iterations planned for the campaign
	FirstPercent    float64 // success percentage at iteration 1
	LastPercent     float64 // success percentage at the final iteration
}

// NewIterationContext validates and returns an IterationContext.
func NewIterationContext(iteration, total int, firstPercent, lastPercent float64) (IterationContext, error) {
	ictx := IterationContext{
		Iteration:       iteration,
		TotalIterations: total,
		FirstPercent:    firstPercent,
		LastPercent:     lastPercent,
	}
	if err := ictx.Validate(); err != nil {
		return IterationContext{}, err
	}
	return ictx, nil
}

// Validate reports the first violated invariant.
func (c IterationContext) Validate() error {
	switch {
	case c.Iteration < 1:
		return fmt.Errorf("%w: iteration must be >= 1, got %d", ErrInvalidContext, c.Iteration)
	case c.TotalIterations < 2:
		return fmt.Errorf("%w: total iterations must be >= 2, got %d", ErrInvalidContext, c.TotalIterations)
	case c.FirstPercent >= 100:
		return fmt.Errorf("%w: first percent must be less than 100, got %g", ErrInvalidContext, c.FirstPercent)
	case c.LastPercent < 0:
		return fmt.Errorf("%w: last percent must not be negative, got %g", ErrInvalidContext, c.LastPercent)
	case c.LastPercent >= c.FirstPercent:
		return fmt.Errorf("%w: last percent (%g) must be less than first percent (%g)", ErrInvalidContext, c.LastPercent, c.FirstPercent)
	}
	return nil
}

// Param is one resolved hyperparameter value.
type Param struct {
	Name    string  `json:"name" yaml:"name"`
	Value   float64 `json:"value" yaml:"value"`
	Integer bool    `json:"integer" yaml:"integer"`
}

// String formats the value the way the training script expects it on the
// command line: integers without a fractional part.
func (p Param) String() string {
	if p.Integer {
		return strconv.FormatInt(int64(p.Value), 10)
	}
	return strconv.FormatFloat(p.Value, 'g', -1, 64)
}

// GridPoint is one fully resolved hyperparameter assignment.
type GridPoint struct {
	Ordinal   int     `json:"ordinal" yaml:"ordinal"` // 1-based position in enumeration order
	Params    []Param `json:"params" yaml:"params"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// Metadata is shared by every descriptor of a run.
type Metadata struct {
	RunID          string   `json:"run_id" yaml:"run_id"`
	Iteration      int      `json:"iteration" yaml:"iteration"`
	TotalMolecules int      `json:"total_molecules" yaml:"total_molecules"`
	MoleculeCap    int      `json:"molecule_cap" yaml:"molecule_cap"`
	DataPath       string   `json:"data_path" yaml:"data_path"`
	SavePath       string   `json:"save_path" yaml:"save_path"`
	ExtraArgs      []string `json:"extra_args,omitempty" yaml:"extra_args,omitempty"`
}

// JobDescriptor is the unit handed to the job sink: one trainable model
// configuration.
type JobDescriptor struct {
	ModelNumber int       `json:"model_number" yaml:"model_number"`
	Point       GridPoint `json:"point" yaml:"point"`
	Metadata    Metadata  `json:"metadata" yaml:"metadata"`
}
