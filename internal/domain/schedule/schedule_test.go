package schedule_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/jobplan/internal/domain/model"
	"github.com/okian/jobplan/internal/domain/schedule"
	. "github.com/smartystreets/goconvey/convey"
)

func mustContext(iteration, total int, first, last float64) model.IterationContext {
	ictx, err := model.NewIterationContext(iteration, total, first, last)
	if err != nil {
		panic(err)
	}
	return ictx
}

func TestScheduler_Linear(t *testing.T) {
	Convey("Given a linear scheduler over 1,000,000 scores", t, func() {
		s := schedule.New()
		const n = 1_000_000

		Convey("When planning iteration 1", func() {
			target, err := s.ComputeTarget(mustContext(1, 10, 1, 0.01), n)

			Convey("Then the target is the first-iteration percentage", func() {
				So(err, ShouldBeNil)
				So(target, ShouldEqual, int(math.Round(0.01*n)))
			})
		})

		Convey("When planning the final iteration", func() {
			target, err := s.ComputeTarget(mustContext(10, 10, 1, 0.01), n)

			Convey("Then the target is the last-iteration percentage", func() {
				So(err, ShouldBeNil)
				So(target, ShouldEqual, max(schedule.MinimumTarget, int(math.Round(0.0001*n))))
			})
		})

		Convey("When walking every iteration", func() {
			prev := math.MaxInt
			for it := 1; it <= 10; it++ {
				target, err := s.ComputeTarget(mustContext(it, 10, 1, 0.01), n)
				So(err, ShouldBeNil)
				So(target, ShouldBeLessThanOrEqualTo, prev)
				prev = target
			}
		})

		Convey("When planning a middle iteration", func() {
			// first=10000, last=100, total=3: (-9900*2 + 30000 - 100)/2 = 5050
			target, err := s.ComputeTarget(mustContext(2, 3, 1, 0.01), n)
			So(err, ShouldBeNil)
			So(target, ShouldEqual, 5050)
		})
	})

	Convey("Given a small sample", t, func() {
		s := schedule.New()

		Convey("When the raw target is below the floor", func() {
			target, err := s.ComputeTarget(mustContext(1, 5, 1, 0.01), 1000)

			Convey("Then it is clamped to the minimum", func() {
				So(err, ShouldBeNil)
				So(target, ShouldEqual, schedule.MinimumTarget)
			})
		})

		Convey("When the clamped target reaches the sample size", func() {
			_, err := s.ComputeTarget(mustContext(1, 5, 1, 0.01), 50)

			Convey("Then it fails with ErrInvalidSchedule", func() {
				So(errors.Is(err, schedule.ErrInvalidSchedule), ShouldBeTrue)
			})
		})

		Convey("When the sample is empty", func() {
			_, err := s.ComputeTarget(mustContext(1, 5, 1, 0.01), 0)
			So(errors.Is(err, schedule.ErrInvalidSchedule), ShouldBeTrue)
		})
	})

	Convey("Given an invalid context", t, func() {
		s := schedule.New()
		_, err := s.ComputeTarget(model.IterationContext{Iteration: 1, TotalIterations: 5, FirstPercent: 50, LastPercent: 60}, 1000)
		So(errors.Is(err, model.ErrInvalidContext), ShouldBeTrue)
	})
}

func TestScheduler_Placeholders(t *testing.T) {
	Convey("Given the placeholder decays", t, func() {
		for _, d := range []schedule.Decay{schedule.Exponential{Base: 2}, schedule.Polynomial{Exponent: 3}} {
			s := schedule.New(schedule.WithDecay(d))
			So(s.Decay(), ShouldResemble, d)

			first, err := s.ComputeTarget(mustContext(1, 5, 1, 0.01), 1_000_000)
			So(err, ShouldBeNil)
			So(first, ShouldEqual, 10_000)

			_, err = s.ComputeTarget(mustContext(2, 5, 1, 0.01), 1_000_000)
			So(errors.Is(err, schedule.ErrDecayNotImplemented), ShouldBeTrue)

			_, err = s.ComputeTarget(mustContext(5, 5, 1, 0.01), 1_000_000)
			So(errors.Is(err, schedule.ErrDecayNotImplemented), ShouldBeTrue)
		}
	})
}

func TestParseDecay(t *testing.T) {
	Convey("Given decay selectors", t, func() {
		d, err := schedule.ParseDecay("", 0, 0)
		So(err, ShouldBeNil)
		So(d.Name(), ShouldEqual, schedule.ModeLinear)

		d, err = schedule.ParseDecay("Exponential", 2, 0)
		So(err, ShouldBeNil)
		So(d, ShouldResemble, schedule.Exponential{Base: 2})

		d, err = schedule.ParseDecay("polynomial", 0, 3)
		So(err, ShouldBeNil)
		So(d, ShouldResemble, schedule.Polynomial{Exponent: 3})

		_, err = schedule.ParseDecay("cubic", 0, 0)
		So(errors.Is(err, schedule.ErrUnknownDecay), ShouldBeTrue)
	})
}
