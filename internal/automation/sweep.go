package automation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/sim"
)

// ParameterSweep runs a scene once per evenly spaced value of one
// parameter between Min and Max inclusive.
type ParameterSweep struct {
	Param    string
	Min      float64
	Max      float64
	NumSteps int
}

type SweepResult struct {
	Value    float64
	Metrics  map[string]float64
	Sleeping int
	Steps    int
}

// Values returns the parameter values the sweep visits.
func (p *ParameterSweep) Values() []float64 {
	if p.NumSteps == 1 {
		return []float64{p.Min}
	}
	vals := make([]float64, p.NumSteps)
	step := (p.Max - p.Min) / float64(p.NumSteps-1)
	for i := range vals {
		vals[i] = p.Min + float64(i)*step
	}
	vals[len(vals)-1] = p.Max
	return vals
}

func RunSweep(ctx context.Context, base *config.Config, sweep *ParameterSweep, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, dynamo.Invalid("sweep steps %d", sweep.NumSteps)
	}

	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		cfg := base.Clone()
		cfg.RecordEvery = 0
		if err := cfg.SetParam(sweep.Param, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}

		s := sim.New(cfg, logger)
		for _, m := range metrics.Default() {
			s.AddMetric(m)
		}
		result, err := s.Run(ctx)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			Value:    v,
			Metrics:  result.Metrics,
			Sleeping: result.Stats.Sleeping,
			Steps:    result.StepsTaken,
		})

		if logger != nil {
			logger.Info("sweep", "step", i+1, "of", len(values), "param", sweep.Param, "value", v)
		}
	}

	return results, nil
}
