package sink_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/okian/jobplan/internal/adapters/sink"
	"github.com/okian/jobplan/internal/domain/model"
	"github.com/okian/jobplan/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(&bytes.Buffer{})); err != nil {
		panic(err)
	}
}

func descriptor(k int) model.JobDescriptor {
	return model.JobDescriptor{
		ModelNumber: k,
		Point: model.GridPoint{
			Ordinal: k,
			Params: []model.Param{
				{Name: "oss", Value: 14, Integer: true},
				{Name: "bs", Value: 256, Integer: true},
				{Name: "num_units", Value: 1000, Integer: true},
				{Name: "dropout", Value: 0.7},
				{Name: "learn_rate", Value: 0.00015},
				{Name: "bin_array", Value: 2, Integer: true},
				{Name: "wt", Value: 3.5},
			},
			Threshold: -9.25,
		},
		Metadata: model.Metadata{
			RunID:          "run-1",
			Iteration:      2,
			TotalMolecules: 4000,
			MoleculeCap:    1000000,
			DataPath:       "/data/proj",
			SavePath:       "/save/proj dir",
			ExtraArgs:      []string{"--epochs", "10"},
		},
	}
}

func TestArguments(t *testing.T) {
	Convey("Given a descriptor", t, func() {
		args := sink.Arguments(descriptor(3))

		Convey("Then hyperparameters come first in dimension order", func() {
			So(strings.Join(args[:16], " "), ShouldEqual,
				"-os 14 -bs 256 -num_units 1000 -dropout 0.7 -learn_rate 0.00015 -bin_array 2 -wt 3.5 -cf -9.25")
		})

		Convey("Then pass-through args precede the run metadata", func() {
			So(strings.Join(args[16:], " "), ShouldEqual,
				"--epochs 10 -n_it 2 -t_mol 4000 --data_path /data/proj --save_path /save/proj dir -n_mol 1000000 --model_number 3")
		})
	})
}

func TestRenderScript(t *testing.T) {
	Convey("Given script settings", t, func() {
		var buf bytes.Buffer
		err := sink.RenderScript(&buf, descriptor(1), sink.ScriptSettings{
			JobName:          "phase_4",
			TrainScript:      "progressive_docking.py",
			ActivationScript: "activation_script.sh",
			WorkDir:          "/home/me/pd",
		})
		So(err, ShouldBeNil)
		out := buf.String()

		Convey("Then the script has the SLURM header and quoted command", func() {
			So(strings.HasPrefix(out, "#!/bin/bash\n"), ShouldBeTrue)
			So(out, ShouldContainSubstring, "#SBATCH --job-name=phase_4")
			So(out, ShouldContainSubstring, "cd /home/me/pd\n")
			So(out, ShouldContainSubstring, "source activation_script.sh\n")
			So(out, ShouldContainSubstring, "python -u progressive_docking.py -os 14 ")
			So(out, ShouldContainSubstring, "--save_path '/save/proj dir'")
			So(out, ShouldContainSubstring, "--model_number 1\necho complete\n")
		})
	})
}

func TestFSSink(t *testing.T) {
	Convey("Given a filesystem sink", t, func() {
		root := t.TempDir()
		ctx := context.Background()
		s, err := sink.NewFSSink(root, sink.WithWorkDir("/work"))
		So(err, ShouldBeNil)

		Convey("When writing two descriptors", func() {
			_, err := s.Clear(ctx, 2)
			So(err, ShouldBeNil)
			So(s.Write(ctx, descriptor(1)), ShouldBeNil)
			So(s.Write(ctx, descriptor(2)), ShouldBeNil)

			Convey("Then executable scripts and YAML sidecars exist", func() {
				info, err := os.Stat(s.ScriptPath(2, 1))
				So(err, ShouldBeNil)
				So(info.Mode().Perm()&0o100, ShouldNotEqual, 0)

				data, err := os.ReadFile(filepath.Join(s.JobDir(2), "simple_job_2.yaml"))
				So(err, ShouldBeNil)
				var back model.JobDescriptor
				So(yaml.Unmarshal(data, &back), ShouldBeNil)
				So(back.ModelNumber, ShouldEqual, 2)
				So(back.Point.Threshold, ShouldEqual, -9.25)
				So(back.Metadata.RunID, ShouldEqual, "run-1")

				entries, err := os.ReadDir(s.JobDir(2))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 4)
			})

			Convey("And clearing the iteration removes them", func() {
				removed, err := s.Clear(ctx, 2)
				So(err, ShouldBeNil)
				So(removed, ShouldEqual, 4)
				entries, _ := os.ReadDir(s.JobDir(2))
				So(len(entries), ShouldEqual, 0)
			})

			Convey("And other iterations are untouched", func() {
				removed, err := s.Clear(ctx, 3)
				So(err, ShouldBeNil)
				So(removed, ShouldEqual, 0)
				_, err = os.Stat(s.ScriptPath(2, 1))
				So(err, ShouldBeNil)
			})
		})

		Convey("When sidecars are disabled", func() {
			s, err := sink.NewFSSink(root, sink.WithSidecars(false))
			So(err, ShouldBeNil)
			So(s.Write(ctx, descriptor(1)), ShouldBeNil)
			entries, _ := os.ReadDir(s.JobDir(2))
			So(len(entries), ShouldEqual, 1)
		})

		Convey("When the model number is zero", func() {
			err := s.Write(ctx, descriptor(0))
			So(errors.Is(err, sink.ErrWriteDescriptor), ShouldBeTrue)
		})
	})

	Convey("Given job names that would break the batch header", t, func() {
		root := t.TempDir()
		for _, name := range []string{"phase 4", "phase_4\n#SBATCH --mem=1", "tab\tname"} {
			_, err := sink.NewFSSink(root, sink.WithJobName(name))
			So(errors.Is(err, sink.ErrInvalidJobName), ShouldBeTrue)
		}
		s, err := sink.NewFSSink(root, sink.WithJobName("phase_5"))
		So(err, ShouldBeNil)
		So(s, ShouldNotBeNil)
	})

	Convey("Given an empty root", t, func() {
		_, err := sink.NewFSSink("")
		So(err, ShouldNotBeNil)
	})
}

func TestMemorySink(t *testing.T) {
	Convey("Given a memory sink", t, func() {
		ctx := context.Background()
		m := sink.NewMemorySink()
		So(m.Write(ctx, descriptor(1)), ShouldBeNil)
		So(m.Write(ctx, descriptor(2)), ShouldBeNil)

		So(len(m.Descriptors(2)), ShouldEqual, 2)
		n, err := m.Clear(ctx, 2)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 2)
		So(len(m.Descriptors(2)), ShouldEqual, 0)

		Convey("When the sink is configured to fail", func() {
			m.FailAfter = 2
			err := m.Write(ctx, descriptor(3))
			So(errors.Is(err, sink.ErrWriteDescriptor), ShouldBeTrue)
		})
	})
}
