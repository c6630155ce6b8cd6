// Package planner plans one iteration of the screening campaign: it picks the
// success count, resolves the score threshold, expands the hyperparameter grid
// and hands one job descriptor per grid point to the sink.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/jobplan/internal/adapters/dataset"
	"github.com/okian/jobplan/internal/adapters/sink"
	"github.com/okian/jobplan/internal/domain/hyperspace"
	"github.com/okian/jobplan/internal/domain/model"
	"github.com/okian/jobplan/internal/domain/sampler"
	"github.com/okian/jobplan/internal/domain/schedule"
	"github.com/okian/jobplan/internal/domain/threshold"
	"github.com/okian/jobplan/pkg/logger"
	"github.com/okian/jobplan/pkg/metrics"
)

// Request is everything a run needs besides the collaborators.
type Request struct {
	Context     model.IterationContext
	Decay       schedule.Decay
	Space       *hyperspace.Space
	MoleculeCap int
	DataPath    string
	SavePath    string
	ExtraArgs   []string
}

// Validate checks the request before any I/O happens.
func (r Request) Validate() error {
	if err := r.Context.Validate(); err != nil {
		return err
	}
	if r.Space == nil {
		return fmt.Errorf("%w: no hyperparameter space", ErrInvalidRequest)
	}
	if r.MoleculeCap < 1 {
		return fmt.Errorf("%w: molecule cap must be >= 1, got %d", ErrInvalidRequest, r.MoleculeCap)
	}
	if r.DataPath == "" || r.SavePath == "" {
		return fmt.Errorf("%w: data and save paths are required", ErrInvalidRequest)
	}
	return nil
}

// Report summarises a finished run.
type Report struct {
	RunID       string
	Target      int
	Threshold   threshold.Result
	Descriptors int
	Cleared     int
	Duration    time.Duration
}

// Planner orchestrates a planning run.
type Planner struct {
	reader   dataset.Reader
	sink     sink.Sink
	resolver *threshold.Resolver
	sampler  *sampler.Sampler
	metrics  *metrics.Manager
	logger   logger.Logger
	runID    func() string
}

// Option applies a configuration option to the Planner.
type Option func(*Planner)

// WithLogger sets a custom logger for the planner.
func WithLogger(l logger.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSampler sets the grid sampler, e.g. a seeded one.
func WithSampler(s *sampler.Sampler) Option {
	return func(p *Planner) {
		if s != nil {
			p.sampler = s
		}
	}
}

// WithResolver sets the threshold resolver.
func WithResolver(r *threshold.Resolver) Option {
	return func(p *Planner) {
		if r != nil {
			p.resolver = r
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Planner) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithRunID sets the run id generator.
func WithRunID(fn func() string) Option {
	return func(p *Planner) {
		if fn != nil {
			p.runID = fn
		}
	}
}

// New constructs a Planner reading from reader and writing to out.
func New(reader dataset.Reader, out sink.Sink, opts ...Option) *Planner {
	p := &Planner{
		reader: reader,
		sink:   out,
		runID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named("planner")
	}
	if p.resolver == nil {
		p.resolver = threshold.New(threshold.WithLogger(p.logger))
	}
	if p.sampler == nil {
		p.sampler = sampler.NewSeeded(0)
	}
	if p.metrics == nil {
		p.metrics = metrics.Default()
	}
	return p
}

// Descriptors expands space into one descriptor per combination, numbered
// from 1 in enumeration order, each carrying cutoff and meta.
func (p *Planner) Descriptors(space *hyperspace.Space, cutoff float64, meta model.Metadata) ([]model.JobDescriptor, error) {
	names := space.Names()
	want := space.Cardinality()
	out := make([]model.JobDescriptor, 0, want)

	for combo := range space.Enumerate() {
		ordinal := len(out) + 1
		point, err := p.sampler.Resolve(ordinal, names, combo, cutoff)
		if err != nil {
			return nil, fmt.Errorf("grid point %d: %w", ordinal, err)
		}
		out = append(out, model.JobDescriptor{
			ModelNumber: ordinal,
			Point:       point,
			Metadata:    meta,
		})
	}

	if len(out) != want {
		return nil, fmt.Errorf("enumerated %d combinations, expected %d", len(out), want)
	}
	return out, nil
}

// Run plans req end to end. Nothing reaches the sink unless every
// descriptor was built; a failed write clears the iteration again.
func (p *Planner) Run(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	report := Report{RunID: p.runID()}
	log := p.logger.With(logger.String("run_id", report.RunID), logger.Int("iteration", req.Context.Iteration))

	fail := func(reason string, err error) (Report, error) {
		p.metrics.RecordPlanFailure(reason)
		log.Error(ctx, "planning aborted", logger.String("reason", reason), logger.Error(err))
		return report, err
	}

	if err := req.Validate(); err != nil {
		return fail(metrics.ReasonValidation, err)
	}
	decay := req.Decay
	if decay == nil {
		decay = schedule.Linear{}
	}

	totalMolecules, err := p.reader.RowCount(ctx)
	if err != nil {
		return fail(metrics.ReasonInput, fmt.Errorf("count molecules: %w", err))
	}
	scores, err := p.reader.LoadScores(ctx, req.Context.Iteration)
	if err != nil {
		return fail(metrics.ReasonInput, fmt.Errorf("load scores: %w", err))
	}
	log.Info(ctx, "loaded inputs",
		logger.Int("total_molecules", totalMolecules),
		logger.Int("scores", scores.Len()),
	)

	sched := schedule.New(schedule.WithDecay(decay))
	target, err := sched.ComputeTarget(req.Context, scores.Len())
	if err != nil {
		return fail(metrics.ReasonSchedule, err)
	}
	report.Target = target

	res, err := p.resolver.Resolve(ctx, scores, target)
	if err != nil {
		return fail(metrics.ReasonThreshold, err)
	}
	report.Threshold = res

	meta := model.Metadata{
		RunID:          report.RunID,
		Iteration:      req.Context.Iteration,
		TotalMolecules: totalMolecules,
		MoleculeCap:    req.MoleculeCap,
		DataPath:       req.DataPath,
		SavePath:       req.SavePath,
		ExtraArgs:      append([]string(nil), req.ExtraArgs...),
	}
	descriptors, err := p.Descriptors(req.Space, res.Threshold, meta)
	if err != nil {
		return fail(metrics.ReasonSpace, err)
	}
	p.metrics.RecordDescriptorsPlanned(len(descriptors))
	log.Info(ctx, "planned grid",
		logger.Int("combinations", len(descriptors)),
		logger.Strings("dimensions", req.Space.Names()),
		logger.String("decay", sched.Decay().Name()),
	)

	cleared, err := p.sink.Clear(ctx, req.Context.Iteration)
	if err != nil {
		return fail(metrics.ReasonSink, fmt.Errorf("clear iteration %d: %w", req.Context.Iteration, err))
	}
	report.Cleared = cleared
	p.metrics.RecordDescriptorsCleared(cleared)

	for _, d := range descriptors {
		log.Debug(ctx, "job descriptor",
			logger.Int("model", d.ModelNumber),
			logger.Any("params", d.Point.Params),
		)
		if err := p.sink.Write(ctx, d); err != nil {
			err = fmt.Errorf("write model %d: %w", d.ModelNumber, err)
			if _, cerr := p.sink.Clear(context.WithoutCancel(ctx), req.Context.Iteration); cerr != nil {
				err = errors.Join(err, fmt.Errorf("roll back iteration %d: %w", req.Context.Iteration, cerr))
			}
			return fail(metrics.ReasonSink, err)
		}
		p.metrics.RecordDescriptorWritten()
	}
	report.Descriptors = len(descriptors)
	report.Duration = time.Since(start)

	p.metrics.RecordPlanDuration(float64(report.Duration) / float64(time.Millisecond))
	p.metrics.UpdatePlanSnapshot(metrics.Snapshot{
		Iteration:      req.Context.Iteration,
		Combinations:   report.Descriptors,
		Target:         target,
		Threshold:      res.Threshold,
		SampleSize:     scores.Len(),
		TotalMolecules: totalMolecules,
	})
	log.Info(ctx, "plan complete",
		logger.Int("descriptors", report.Descriptors),
		logger.Int("cleared", report.Cleared),
		logger.Duration("elapsed", report.Duration),
	)
	return report, nil
}
