package planner_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/jobplan/internal/adapters/sink"
	planner "github.com/okian/jobplan/internal/app"
	"github.com/okian/jobplan/internal/config"
	"github.com/okian/jobplan/internal/domain/hyperspace"
	"github.com/okian/jobplan/internal/domain/model"
	"github.com/okian/jobplan/internal/domain/sampler"
	"github.com/okian/jobplan/internal/domain/schedule"
	"github.com/okian/jobplan/internal/domain/stats"
	"github.com/okian/jobplan/pkg/logger"
	"github.com/okian/jobplan/pkg/metrics"
)

func init() {
	if err := logger.Init(logger.WithWriter(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

type stubReader struct {
	total  int
	scores []float64
	err    error
	calls  int
}

func (r *stubReader) RowCount(context.Context) (int, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	return r.total, nil
}

func (r *stubReader) LoadScores(context.Context, int) (*stats.Sample, error) {
	r.calls++
	return stats.NewSample(r.scores)
}

// countingSink records how often the wrapped sink is touched.
type countingSink struct {
	*sink.MemorySink
	clears int
	writes int
}

func (c *countingSink) Clear(ctx context.Context, iteration int) (int, error) {
	c.clears++
	return c.MemorySink.Clear(ctx, iteration)
}

func (c *countingSink) Write(ctx context.Context, d model.JobDescriptor) error {
	c.writes++
	return c.MemorySink.Write(ctx, d)
}

func scoresTo(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64((i + 1) * 10)
	}
	return out
}

func counterValue(reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() == name {
			var sum float64
			for _, m := range f.GetMetric() {
				sum += counterOrGauge(m)
			}
			return sum
		}
	}
	return 0
}

func counterOrGauge(m *dto.Metric) float64 {
	if m.GetCounter() != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func newRequest(space *hyperspace.Space) planner.Request {
	return planner.Request{
		Context:     model.IterationContext{Iteration: 1, TotalIterations: 10, FirstPercent: 1, LastPercent: 0.01},
		Decay:       schedule.Linear{},
		Space:       space,
		MoleculeCap: 1_000_000,
		DataPath:    "/data/project",
		SavePath:    "/save/project",
		ExtraArgs:   []string{"--fp", "morgan"},
	}
}

func TestPlannerRun(t *testing.T) {
	Convey("Given a planner over 100 scores and the default 24-point grid", t, func() {
		reg := prometheus.NewRegistry()
		mm := metrics.NewManager(metrics.WithPrometheusRegistry(reg))
		reader := &stubReader{total: 5000, scores: scoresTo(100)}
		out := &countingSink{MemorySink: sink.NewMemorySink()}
		p := planner.New(reader, out,
			planner.WithSampler(sampler.NewSeeded(42)),
			planner.WithMetrics(mm),
			planner.WithRunID(func() string { return "run-1" }),
		)

		space, err := hyperspace.Discrete(24)
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When running the first iteration", func() {
			report, err := p.Run(ctx, newRequest(space))
			So(err, ShouldBeNil)

			Convey("Then the target is clamped to the floor and the threshold is the median", func() {
				So(report.RunID, ShouldEqual, "run-1")
				So(report.Target, ShouldEqual, schedule.MinimumTarget)
				So(report.Threshold.Percentile, ShouldAlmostEqual, 50.0)
				So(report.Threshold.Threshold, ShouldAlmostEqual, 505.0)
				So(report.Descriptors, ShouldEqual, 24)
			})

			Convey("Then one descriptor per combination is written in order", func() {
				got := out.Descriptors(1)
				So(len(got), ShouldEqual, 24)
				for i, d := range got {
					So(d.ModelNumber, ShouldEqual, i+1)
					So(d.Point.Ordinal, ShouldEqual, i+1)
					So(d.Point.Threshold, ShouldAlmostEqual, 505.0)
					So(len(d.Point.Params), ShouldEqual, len(hyperspace.Order))
					So(d.Metadata.RunID, ShouldEqual, "run-1")
					So(d.Metadata.TotalMolecules, ShouldEqual, 5000)
					So(d.Metadata.ExtraArgs, ShouldResemble, []string{"--fp", "morgan"})
				}
			})

			Convey("Then the metrics describe the run", func() {
				So(counterValue(reg, "jobplan_planner_descriptors_written_total"), ShouldEqual, 24)
				So(counterValue(reg, "jobplan_planner_score_threshold"), ShouldAlmostEqual, 505.0)
				So(counterValue(reg, "jobplan_planner_success_target"), ShouldEqual, 50)
			})

			Convey("And running it again", func() {
				again, err := p.Run(ctx, newRequest(space))
				So(err, ShouldBeNil)

				Convey("Then the previous descriptors are replaced", func() {
					So(again.Cleared, ShouldEqual, 24)
					So(len(out.Descriptors(1)), ShouldEqual, 24)
				})
			})
		})

		Convey("When the percentages are inverted", func() {
			req := newRequest(space)
			req.Context.FirstPercent = 50
			req.Context.LastPercent = 60
			_, err := p.Run(ctx, req)

			Convey("Then it fails before touching inputs or the sink", func() {
				So(errors.Is(err, model.ErrInvalidContext), ShouldBeTrue)
				So(reader.calls, ShouldEqual, 0)
				So(out.clears, ShouldEqual, 0)
				So(out.writes, ShouldEqual, 0)
				So(counterValue(reg, "jobplan_planner_plan_failures_total"), ShouldEqual, 1)
			})
		})

		Convey("When the decay is exponential", func() {
			req := newRequest(space)
			req.Decay = schedule.Exponential{Base: 2}

			Convey("Then the first iteration still plans from the first count", func() {
				report, err := p.Run(ctx, req)
				So(err, ShouldBeNil)
				So(report.Target, ShouldEqual, schedule.MinimumTarget)
				So(len(out.Descriptors(1)), ShouldEqual, 24)
			})

			Convey("Then a later iteration reports the missing decay and writes nothing", func() {
				req.Context.Iteration = 2
				_, err := p.Run(ctx, req)
				So(errors.Is(err, schedule.ErrDecayNotImplemented), ShouldBeTrue)
				So(out.clears, ShouldEqual, 0)
				So(out.writes, ShouldEqual, 0)
			})
		})

		Convey("When the target does not fit the sample", func() {
			reader.scores = scoresTo(40)
			_, err := p.Run(ctx, newRequest(space))

			Convey("Then the schedule rejects it", func() {
				So(errors.Is(err, schedule.ErrInvalidSchedule), ShouldBeTrue)
				So(out.writes, ShouldEqual, 0)
			})
		})

		Convey("When the inputs cannot be read", func() {
			reader.err = errors.New("disk gone")
			_, err := p.Run(ctx, newRequest(space))

			Convey("Then the error is returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "disk gone")
				So(out.clears, ShouldEqual, 0)
			})
		})

		Convey("When the sink fails halfway", func() {
			out.FailAfter = 5
			_, err := p.Run(ctx, newRequest(space))

			Convey("Then the partial iteration is rolled back", func() {
				So(errors.Is(err, sink.ErrWriteDescriptor), ShouldBeTrue)
				So(out.writes, ShouldEqual, 6)
				So(out.clears, ShouldEqual, 2)
				So(out.Descriptors(1), ShouldBeEmpty)
			})
		})
	})
}

func TestPlannerDescriptors(t *testing.T) {
	Convey("Given a planner with a seeded sampler", t, func() {
		p := planner.New(&stubReader{}, sink.NewMemorySink(),
			planner.WithSampler(sampler.NewSeeded(7)),
			planner.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))),
		)

		Convey("When expanding a space with ranges", func() {
			space, err := hyperspace.New(
				hyperspace.Dimension{Name: "bs", Values: []hyperspace.Value{hyperspace.Int(128), hyperspace.Int(256)}},
				hyperspace.Dimension{Name: "dropout", Values: []hyperspace.Value{hyperspace.RealRange(0.1, 0.5)}},
			)
			So(err, ShouldBeNil)
			got, err := p.Descriptors(space, 1.5, model.Metadata{Iteration: 3})
			So(err, ShouldBeNil)

			Convey("Then every range is drawn inside its bounds", func() {
				So(len(got), ShouldEqual, 2)
				for _, d := range got {
					So(d.Point.Threshold, ShouldEqual, 1.5)
					So(d.Metadata.Iteration, ShouldEqual, 3)
					So(d.Point.Params[1].Value, ShouldBeBetweenOrEqual, 0.1, 0.5)
				}
				So(got[0].Point.Params[0].Value, ShouldEqual, 128)
				So(got[1].Point.Params[0].Value, ShouldEqual, 256)
			})
		})
	})
}

func TestRequestFromConfig(t *testing.T) {
	Convey("Given a valid configuration", t, func() {
		cfg := config.New()
		cfg.Iteration = 2
		cfg.TotalIterations = 5
		cfg.DataPath = "/data/project"
		cfg.HyperparameterCount = 24

		Convey("When building a request", func() {
			req, err := planner.RequestFromConfig(cfg)
			So(err, ShouldBeNil)

			Convey("Then it carries the configured run", func() {
				So(req.Context.Iteration, ShouldEqual, 2)
				So(req.Decay.Name(), ShouldEqual, schedule.ModeLinear)
				So(req.Space.Cardinality(), ShouldEqual, 24)
				So(req.SavePath, ShouldEqual, "/data/project")
				So(req.Validate(), ShouldBeNil)
			})
		})

		Convey("When the decay mode is unknown", func() {
			cfg.Decay = "cosine"
			_, err := planner.RequestFromConfig(cfg)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, schedule.ErrUnknownDecay), ShouldBeTrue)
			})
		})

		Convey("When a hyperparameter override names an unknown dimension", func() {
			cfg.Hyperparameters = map[string][]any{"momentum": {0.9}}
			_, err := planner.RequestFromConfig(cfg)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, hyperspace.ErrUnknownDimension), ShouldBeTrue)
			})
		})

		Convey("When the percentages are inverted", func() {
			cfg.PercentFirst = 50
			cfg.PercentLast = 60
			_, err := planner.RequestFromConfig(cfg)

			Convey("Then configuration validation fails", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
