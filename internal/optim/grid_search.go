// Package optim searches configuration parameters for the values that
// minimise a run metric.
package optim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/sim"
)

// GridSearch evaluates every combination of the given parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     *slog.Logger
	evaluated  int
}

func NewGridSearch(params []string, ranges [][]float64, logger *slog.Logger) *GridSearch {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: logger}
}

// Evaluated is the number of runs completed by the last Search.
func (g *GridSearch) Evaluated() int { return g.evaluated }

// Search returns the parameter set with the smallest value of metricName.
// Combinations that fail validation are skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if metrics.ByName(metricName) == nil {
		return nil, 0, fmt.Errorf("unknown metric: %s", metricName)
	}

	g.evaluated = 0
	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, &best, &bestParams); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("no valid parameter combination")
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		cfg := base.Clone()
		cfg.RecordEvery = 0
		if err := cfg.SetParams(current); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			g.logger.Debug("skipping combination", "params", current, "err", err)
			return nil
		}

		s := sim.New(cfg, g.logger)
		s.AddMetric(metrics.ByName(metricName))
		result, err := s.Run(ctx)
		if err != nil {
			return err
		}
		g.evaluated++

		val := result.Metrics[metricName]
		g.logger.Debug("evaluated", "params", current, metricName, val)
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
