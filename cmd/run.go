package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/jobplan/internal/adapters/dataset"
	"github.com/okian/jobplan/internal/adapters/sink"
	planner "github.com/okian/jobplan/internal/app"
	"github.com/okian/jobplan/internal/config"
	"github.com/okian/jobplan/internal/domain/sampler"
	"github.com/okian/jobplan/pkg/logger"
	"github.com/okian/jobplan/pkg/metrics"
)

// run loads the configuration, plans the iteration and prints a summary to w.
func run(ctx context.Context, w io.Writer, configFile string, overrides map[string]any) error {
	cfg, err := config.Load(ctx, config.WithFile(configFile), config.WithOverrides(overrides))
	if err != nil {
		return err
	}
	if err := configureLogging(cfg); err != nil {
		return err
	}
	log := logger.Named("cli")

	req, err := planner.RequestFromConfig(cfg)
	if err != nil {
		return err
	}

	var (
		out    sink.Sink
		memory *sink.MemorySink
	)
	if cfg.DryRun {
		memory = sink.NewMemorySink()
		out = memory
	} else {
		fs, err := sink.NewFSSink(req.SavePath,
			sink.WithJobName(cfg.JobName),
			sink.WithTrainScript(cfg.TrainScript),
			sink.WithActivationScript(cfg.ActivationScript),
			sink.WithWorkDir(cfg.WorkDir),
		)
		if err != nil {
			return err
		}
		out = fs
	}

	reader := dataset.NewCSVReader(cfg.DataPath, dataset.WithLabelsIteration(cfg.LabelsIteration))
	p := planner.New(reader, out,
		planner.WithLogger(logger.Named("planner")),
		planner.WithSampler(sampler.NewSeeded(cfg.Seed)),
	)

	log.Info(ctx, "planning iteration",
		logger.Int("iteration", req.Context.Iteration),
		logger.Int64("seed", cfg.Seed),
		logger.Bool("dry_run", cfg.DryRun),
	)
	report, runErr := p.Run(ctx, req)
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, metrics.GetRegistry()); err != nil {
			log.Warn(ctx, "metrics textfile not written", logger.Error(err))
			runErr = errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(w, "iteration %d: %d jobs planned, target %d hits, score threshold %g (run %s)\n",
		req.Context.Iteration, report.Descriptors, report.Target, report.Threshold.Threshold, report.RunID)
	if memory != nil {
		for _, d := range memory.Descriptors(req.Context.Iteration) {
			fmt.Fprintf(w, "model %d: %s\n", d.ModelNumber, strings.Join(sink.Arguments(d), " "))
		}
	}
	return nil
}

// configureLogging applies the configured log format and level.
func configureLogging(cfg *config.Config) error {
	if strings.EqualFold(cfg.LogFormat, "json") {
		if err := logger.Init(logger.WithJSON()); err != nil {
			return err
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(context.Background(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		return logger.SetLevelString("info")
	}
	return nil
}
