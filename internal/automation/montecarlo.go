package automation

import (
	"context"
	"log/slog"
	"math"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/sim"
)

// bound is the coordinate magnitude past which a trial counts as unstable.
const bound = 1e6

type MonteCarloResult struct {
	TrialID        int
	Seed           int64
	Stable         bool
	MaxPenetration float64
	Energy         float64
	Sleeping       int
}

// RunMonteCarlo runs trials concurrently, each with seed cfg.Seed+i, so
// every trial scatters its bodies differently.
func RunMonteCarlo(ctx context.Context, cfg *config.Config, trials, workers int, logger *slog.Logger) ([]MonteCarloResult, error) {
	if trials < 1 {
		return nil, dynamo.Invalid("trials %d", trials)
	}
	runCfg := cfg.Clone()
	runCfg.RecordEvery = 0

	e := sim.NewEnsemble(runCfg, trials, logger).WithMetrics(metrics.Default)
	e.VarySeed = true
	e.MaxWorkers = workers

	runs, err := e.Run(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			TrialID:        i,
			Seed:           r.Seed,
			Stable:         bounded(r.Final()),
			MaxPenetration: r.Metrics["max_penetration"],
			Energy:         r.Metrics["energy"],
			Sleeping:       r.Stats.Sleeping,
		}
	}
	return results, nil
}

func bounded(f sim.Frame) bool {
	for _, b := range f.Bodies {
		for _, c := range b.Position {
			if !dynamo.Finite(c) || math.Abs(c) > bound {
				return false
			}
		}
	}
	return true
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
