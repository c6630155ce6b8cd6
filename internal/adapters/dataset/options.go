package dataset

// Option applies a configuration option to the CSVReader.
type Option func(*CSVReader)

// WithLabelsIteration pins the iteration directory the validation labels are
// read from. Zero means "the iteration being planned".
func WithLabelsIteration(iteration int) Option {
	return func(r *CSVReader) {
		if iteration >= 0 {
			r.labelsIteration = iteration
		}
	}
}

// WithCountFile overrides the name of the per-file molecule count CSV.
func WithCountFile(name string) Option {
	return func(r *CSVReader) {
		if name != "" {
			r.countFile = name
		}
	}
}

// WithLabelsFile overrides the name of the validation labels file.
func WithLabelsFile(name string) Option {
	return func(r *CSVReader) {
		if name != "" {
			r.labelsFile = name
		}
	}
}
