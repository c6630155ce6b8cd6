package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okian/jobplan/internal/config"
	"github.com/okian/jobplan/internal/domain/schedule"
)

// flagKeys maps command-line flags to configuration keys. Only flags the
// user actually set are forwarded, so file and env values survive.
var flagKeys = map[string]string{
	"iteration":         "iteration",
	"total-iterations":  "total_iterations",
	"data-path":         "data_path",
	"save-path":         "save_path",
	"hyperparameters":   "hyperparameter_count",
	"molecule-cap":      "molecule_cap",
	"percent-first":     "percent_first",
	"percent-last":      "percent_last",
	"decay":             "decay",
	"decay-base":        "decay_base",
	"decay-exponent":    "decay_exponent",
	"continuous":        "continuous_hyperparameters",
	"seed":              "seed",
	"labels-iteration":  "labels_iteration",
	"log-level":         "log_level",
	"log-format":        "log_format",
	"metrics-file":      "metrics_file",
	"dry-run":           "dry_run",
	"job-name":          "job_name",
	"train-script":      "train_script",
	"activation-script": "activation_script",
	"workdir":           "workdir",
}

func newRootCmd() *cobra.Command {
	var configFile string
	defaults := config.New()

	cmd := &cobra.Command{
		Use:   "jobplan [flags] [-- extra training args]",
		Short: "Plan the model-training jobs of one screening iteration",
		Long: `jobplan picks how many top-scoring molecules count as hits for the
current iteration, derives the matching score threshold from the validation
labels and writes one SLURM training script per hyperparameter grid point.

Arguments after "--" are passed verbatim to every training job.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := collectOverrides(cmd.Flags())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				overrides["extra_args"] = args
			}
			return run(cmd.Context(), cmd.OutOrStdout(), configFile, overrides)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "YAML configuration file (default $"+config.EnvPrefix+"CONFIG)")
	f.IntP("iteration", "n", 0, "Iteration being planned, starting at 1")
	f.Int("total-iterations", 0, "Total number of iterations in the campaign")
	f.String("data-path", "", "Project directory holding the dataset")
	f.String("save-path", "", "Directory receiving the job scripts (default data-path)")
	f.Int("hyperparameters", 0, "Requested number of hyperparameter sets")
	f.Int("molecule-cap", defaults.MoleculeCap, "Molecules sampled by each training job")
	f.Float64("percent-first", defaults.PercentFirst, "Success percentage at the first iteration")
	f.Float64("percent-last", defaults.PercentLast, "Success percentage at the last iteration")
	f.String("decay", defaults.Decay, "Success schedule: linear, exponential or polynomial")
	f.Bool("exp-decay", false, "Shorthand for --decay=exponential")
	f.Bool("poly-decay", false, "Shorthand for --decay=polynomial")
	f.Float64("decay-base", 0, "Base of the exponential schedule")
	f.Float64("decay-exponent", 0, "Exponent of the polynomial schedule")
	f.Bool("continuous", false, "Sample every hyperparameter from a range instead of the discrete grid")
	f.Int64("seed", 0, "Sampler seed; 0 draws a fresh seed")
	f.Int("labels-iteration", defaults.LabelsIteration, "Iteration directory holding validation labels; 0 means the planned iteration")
	f.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	f.String("log-format", defaults.LogFormat, "Log format (text, json)")
	f.String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	f.Bool("dry-run", false, "Plan and print the jobs without writing any file")
	f.String("job-name", defaults.JobName, "SLURM job name")
	f.String("train-script", defaults.TrainScript, "Training entry point run by each job")
	f.String("activation-script", defaults.ActivationScript, "Environment script sourced by each job")
	f.String("workdir", "", "Directory each job changes into (default current directory)")

	cmd.MarkFlagsMutuallyExclusive("decay", "exp-decay", "poly-decay")
	return cmd
}

// collectOverrides turns the flags the user set into configuration values.
func collectOverrides(flags *pflag.FlagSet) (map[string]any, error) {
	overrides := map[string]any{}
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "exp-decay":
			if on, _ := flags.GetBool(f.Name); on {
				overrides["decay"] = schedule.ModeExponential
			}
			return
		case "poly-decay":
			if on, _ := flags.GetBool(f.Name); on {
				overrides["decay"] = schedule.ModePolynomial
			}
			return
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		var v any
		v, err = flagValue(flags, f)
		if err == nil {
			overrides[key] = v
		}
	})
	return overrides, err
}

func flagValue(flags *pflag.FlagSet, f *pflag.Flag) (any, error) {
	switch f.Value.Type() {
	case "int":
		return flags.GetInt(f.Name)
	case "int64":
		return flags.GetInt64(f.Name)
	case "float64":
		return flags.GetFloat64(f.Name)
	case "bool":
		return flags.GetBool(f.Name)
	case "string":
		return flags.GetString(f.Name)
	default:
		return nil, fmt.Errorf("flag --%s: unsupported type %s", f.Name, f.Value.Type())
	}
}
