package planner

import (
	"github.com/okian/jobplan/internal/config"
	"github.com/okian/jobplan/internal/domain/hyperspace"
	"github.com/okian/jobplan/internal/domain/model"
	"github.com/okian/jobplan/internal/domain/schedule"
)

// RequestFromConfig validates cfg and builds the Request it describes. It
// performs no I/O, so every configuration error surfaces before the sink is
// touched.
func RequestFromConfig(cfg *config.Config) (Request, error) {
	if err := cfg.Validate(); err != nil {
		return Request{}, err
	}
	ictx, err := model.NewIterationContext(cfg.Iteration, cfg.TotalIterations, cfg.PercentFirst, cfg.PercentLast)
	if err != nil {
		return Request{}, err
	}
	decay, err := schedule.ParseDecay(cfg.Decay, cfg.DecayBase, cfg.DecayExponent)
	if err != nil {
		return Request{}, err
	}
	space, err := hyperspace.Build(cfg.HyperparameterCount, cfg.ContinuousHyperparameters, cfg.Hyperparameters)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Context:     ictx,
		Decay:       decay,
		Space:       space,
		MoleculeCap: cfg.MoleculeCap,
		DataPath:    cfg.DataPath,
		SavePath:    cfg.ResolvedSavePath(),
		ExtraArgs:   append([]string(nil), cfg.ExtraArgs...),
	}, nil
}
