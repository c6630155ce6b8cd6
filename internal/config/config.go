// Package config defines the planner configuration and its loading hooks.
//
// Conventions:
//   - Config is built once per run and passed down; no component reads
//     configuration from the environment on its own.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"unicode"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Iteration is the 1-based iteration being planned.
	Iteration int `koanf:"iteration"`

	// TotalIterations is the number of iterations of the campaign.
	TotalIterations int `koanf:"total_iterations"`

	// DataPath is the project directory holding the dataset.
	DataPath string `koanf:"data_path"`

	// SavePath is where job artifacts go. Empty means DataPath.
	SavePath string `koanf:"save_path"`

	// HyperparameterCount is the requested number of hyperparameter sets.
	HyperparameterCount int `koanf:"hyperparameter_count"`

	// MoleculeCap limits how many molecules each training job samples.
	MoleculeCap int `koanf:"molecule_cap"`

	// PercentFirst and PercentLast are the success percentages at the first
	// and last iteration.
	PercentFirst float64 `koanf:"percent_first"`
	PercentLast  float64 `koanf:"percent_last"`

	// Decay selects the success schedule: linear, exponential, polynomial.
	Decay         string  `koanf:"decay"`
	DecayBase     float64 `koanf:"decay_base"`
	DecayExponent float64 `koanf:"decay_exponent"`

	// ContinuousHyperparameters replaces the discrete grid with pure ranges.
	ContinuousHyperparameters bool `koanf:"continuous_hyperparameters"`

	// Hyperparameters overrides the values of individual dimensions. Each
	// entry is a number or a [min, max] pair.
	Hyperparameters map[string][]any `koanf:"hyperparameters"`

	// Seed fixes the sampler seed. Zero draws a fresh seed per run.
	Seed int64 `koanf:"seed"`

	// LabelsIteration is the iteration directory holding validation labels.
	// Zero means the iteration being planned.
	LabelsIteration int `koanf:"labels_iteration"`

	// MetricsFile, when set, receives a Prometheus textfile after the run.
	MetricsFile string `koanf:"metrics_file"`

	// DryRun plans without touching the filesystem sink.
	DryRun bool `koanf:"dry_run"`

	// Batch script settings.
	JobName          string `koanf:"job_name"`
	TrainScript      string `koanf:"train_script"`
	ActivationScript string `koanf:"activation_script"`
	WorkDir          string `koanf:"workdir"`

	// ExtraArgs are forwarded verbatim to every training job.
	ExtraArgs []string `koanf:"extra_args"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		MoleculeCap:      1_000_000,
		PercentFirst:     1,
		PercentLast:      0.01,
		Decay:            "linear",
		LabelsIteration:  1,
		JobName:          "phase_4",
		TrainScript:      "progressive_docking.py",
		ActivationScript: "activation_script.sh",
	}
}

// ResolvedSavePath returns SavePath, falling back to DataPath.
func (c *Config) ResolvedSavePath() string {
	if c.SavePath != "" {
		return c.SavePath
	}
	return c.DataPath
}

// Validate checks the scalar invariants that do not need any input data.
func (c *Config) Validate() error {
	var problems []string
	if c.Iteration < 1 {
		problems = append(problems, fmt.Sprintf("iteration must be >= 1, got %d", c.Iteration))
	}
	if c.TotalIterations < 2 {
		problems = append(problems, fmt.Sprintf("total_iterations must be >= 2, got %d", c.TotalIterations))
	}
	if c.DataPath == "" {
		problems = append(problems, "data_path must not be empty")
	}
	if c.HyperparameterCount < 1 {
		problems = append(problems, fmt.Sprintf("hyperparameter_count must be >= 1, got %d", c.HyperparameterCount))
	}
	if c.MoleculeCap < 1 {
		problems = append(problems, fmt.Sprintf("molecule_cap must be >= 1, got %d", c.MoleculeCap))
	}
	if c.PercentFirst >= 100 {
		problems = append(problems, fmt.Sprintf("percent_first must be less than 100, got %g", c.PercentFirst))
	}
	if c.PercentLast >= c.PercentFirst {
		problems = append(problems, fmt.Sprintf("percent_last (%g) must be less than percent_first (%g)", c.PercentLast, c.PercentFirst))
	}
	if c.JobName == "" || strings.ContainsFunc(c.JobName, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) {
		problems = append(problems, fmt.Sprintf("job_name must be non-empty without whitespace or control characters, got %q", c.JobName))
	}
	if c.LabelsIteration < 0 {
		problems = append(problems, fmt.Sprintf("labels_iteration must not be negative, got %d", c.LabelsIteration))
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format must be text or json, got %q", c.LogFormat))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
