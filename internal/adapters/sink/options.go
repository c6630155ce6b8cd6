package sink

import "github.com/okian/jobplan/pkg/logger"

// Option applies a configuration option to the FSSink.
type Option func(*FSSink)

// WithJobName sets the SLURM job name.
func WithJobName(name string) Option {
	return func(s *FSSink) {
		if name != "" {
			s.script.JobName = name
		}
	}
}

// WithTrainScript sets the python entry point each job runs.
func WithTrainScript(path string) Option {
	return func(s *FSSink) {
		if path != "" {
			s.script.TrainScript = path
		}
	}
}

// WithActivationScript sets the environment script sourced before training.
func WithActivationScript(path string) Option {
	return func(s *FSSink) {
		if path != "" {
			s.script.ActivationScript = path
		}
	}
}

// WithWorkDir sets the directory each job changes into.
func WithWorkDir(dir string) Option {
	return func(s *FSSink) {
		if dir != "" {
			s.script.WorkDir = dir
		}
	}
}

// WithSidecars toggles the YAML descriptor written next to each script.
func WithSidecars(enabled bool) Option {
	return func(s *FSSink) {
		s.sidecars = enabled
	}
}

// WithLogger sets a custom logger for the sink.
func WithLogger(l logger.Logger) Option {
	return func(s *FSSink) {
		if l != nil {
			s.logger = l
		}
	}
}
