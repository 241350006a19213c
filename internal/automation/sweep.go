package automation

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/florianHoidn/rl-drone-env/internal/config"
	"github.com/florianHoidn/rl-drone-env/internal/experiment"
	"github.com/florianHoidn/rl-drone-env/internal/physics"
	"github.com/florianHoidn/rl-drone-env/internal/sim"
)

// ParameterSweep varies one controller parameter of Base over NumSteps
// evenly spaced values in [Min, Max].
type ParameterSweep struct {
	Base     *config.Config
	Param    string
	Min, Max float64
	NumSteps int
}

type SweepResult struct {
	Value      float64
	Final      physics.DroneState
	Metrics    map[string]float64
	Terminated bool
}

func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	out := make([]float64, s.NumSteps)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, reg *experiment.Registry, logger *log.Logger) ([]SweepResult, error) {
	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))

	for i, v := range values {
		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.Param, v); err != nil {
			return nil, err
		}
		exp, err := experiment.New(cfg, reg)
		if err != nil {
			return nil, err
		}
		exp.SetLogger(logger)

		result, err := exp.Run(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{
			Value:      v,
			Final:      result.Final(),
			Metrics:    result.Metrics,
			Terminated: result.Terminated,
		})
		logger.Debug("sweep", "i", i+1, "of", len(values), sweep.Param, v)
	}
	return results, nil
}

// MonteCarloStats counts ensemble runs that finished inside the bounds.
func MonteCarloStats(results []*sim.Result) (stable, unstable int) {
	for _, r := range results {
		if r.Terminated || len(r.Errors) > 0 {
			unstable++
		} else {
			stable++
		}
	}
	return stable, unstable
}

// GridSearch tries every combination of the given parameter values and
// keeps the one with the lowest value of a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d parameters but %d ranges", len(params), len(ranges))
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search runs base with each combination applied and returns the best
// parameters and their metric value. Runs that end early count as worst.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *experiment.Registry, metricName string) (map[string]float64, float64, error) {
	best := -1.0
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(params map[string]float64) error {
		cfg := base.Clone()
		for k, v := range params {
			if err := cfg.SetParam(k, v); err != nil {
				return err
			}
		}
		exp, err := experiment.New(cfg, reg)
		if err != nil {
			return err
		}
		exp.SetLogger(log.New(io.Discard))

		result, err := exp.Run(ctx)
		if err != nil {
			return err
		}
		if result.Terminated {
			return nil
		}
		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("grid search: no metric %q", metricName)
		}
		if bestParams == nil || val < best {
			best = val
			bestParams = make(map[string]float64, len(params))
			for k, v := range params {
				bestParams[k] = v
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("grid search: every combination left the bounds")
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, eval func(map[string]float64) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return eval(current)
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		if err := g.searchRecursive(ctx, depth+1, next, eval); err != nil {
			return err
		}
	}
	return nil
}
