// Package sweep runs a configuration across a range of one parameter and
// summarises the final metric values.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bdsim/internal/config"
	"github.com/san-kum/bdsim/internal/experiment"
)

var ErrNoValues = errors.New("sweep: no parameter values")

// Plan is a sweep as written in a YAML file. Values, if empty, is filled
// from Min, Max and Steps.
type Plan struct {
	Preset  string    `yaml:"preset"`
	Param   string    `yaml:"param"`
	Values  []float64 `yaml:"values,omitempty"`
	Min     float64   `yaml:"min,omitempty"`
	Max     float64   `yaml:"max,omitempty"`
	Steps   int       `yaml:"steps,omitempty"`
	Repeats int       `yaml:"repeats"`
	Metric  string    `yaml:"metric"`
}

func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if len(p.Values) == 0 && p.Steps > 0 {
		p.Values = Linspace(p.Min, p.Max, p.Steps)
	}
	return &p, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Point is one member of a sweep. Err is set when the run itself failed;
// Metrics then holds the values at the point of failure.
type Point struct {
	Value   float64
	Seed    uint64
	Metrics map[string]float64
	Err     error
}

type Runner struct {
	Param   string
	Values  []float64
	Repeats int
	// Limit caps the runs in flight; zero runs them all at once.
	Limit  int
	Logger *slog.Logger
}

// Run builds base with every value of the parameter, Repeats times each with
// seeds base.Seed, base.Seed+1, ... A configuration that cannot be built
// aborts the sweep; a run that fails is recorded in its Point.
func (r *Runner) Run(ctx context.Context, base *config.Config) ([]Point, error) {
	if len(r.Values) == 0 {
		return nil, ErrNoValues
	}
	repeats := max(r.Repeats, 1)
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	points := make([]Point, len(r.Values)*repeats)
	g, ctx := errgroup.WithContext(ctx)
	if r.Limit > 0 {
		g.SetLimit(r.Limit)
	}

	for i, v := range r.Values {
		for rep := 0; rep < repeats; rep++ {
			idx := i*repeats + rep
			cfg := base.Clone()
			if err := cfg.Set(r.Param, v); err != nil {
				return nil, err
			}
			cfg.Seed = base.Seed + uint64(rep)

			g.Go(func() error {
				s, err := experiment.Build(cfg, nil, logger.With(r.Param, v, "seed", cfg.Seed))
				if err != nil {
					return fmt.Errorf("sweep %s=%g: %w", r.Param, v, err)
				}
				res, err := s.Run(ctx, experiment.RunConfig(cfg))
				if errors.Is(err, context.Canceled) {
					return err
				}
				points[idx] = Point{Value: v, Seed: cfg.Seed, Err: err}
				if res != nil {
					points[idx].Metrics = res.Metrics
				}
				if err != nil {
					logger.Warn("sweep run failed", r.Param, v, "seed", cfg.Seed, "err", err)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Summary aggregates the successful runs at one parameter value.
type Summary struct {
	Param  string  `csv:"param"`
	Value  float64 `csv:"value"`
	Metric string  `csv:"metric"`
	Mean   float64 `csv:"mean"`
	Std    float64 `csv:"std"`
	Runs   int     `csv:"runs"`
	Failed int     `csv:"failed"`
}

// Summarize groups points by value in first-seen order.
func Summarize(param, metric string, points []Point) []Summary {
	var order []float64
	values := make(map[float64][]float64)
	failed := make(map[float64]int)
	for _, p := range points {
		if _, ok := values[p.Value]; !ok {
			order = append(order, p.Value)
			values[p.Value] = nil
		}
		if p.Err != nil {
			failed[p.Value]++
			continue
		}
		if m, ok := p.Metrics[metric]; ok {
			values[p.Value] = append(values[p.Value], m)
		}
	}

	out := make([]Summary, 0, len(order))
	for _, v := range order {
		s := Summary{Param: param, Value: v, Metric: metric, Runs: len(values[v]), Failed: failed[v]}
		switch len(values[v]) {
		case 0:
			s.Mean = math.NaN()
		case 1:
			s.Mean = values[v][0]
		default:
			s.Mean, s.Std = stat.MeanStdDev(values[v], nil)
		}
		out = append(out, s)
	}
	return out
}

// Best returns the summary with the smallest mean, or the largest when
// maximize is set. Values without a successful run are skipped.
func Best(summaries []Summary, maximize bool) (Summary, bool) {
	valid := slices.DeleteFunc(slices.Clone(summaries), func(s Summary) bool { return s.Runs == 0 })
	if len(valid) == 0 {
		return Summary{}, false
	}
	cmp := func(a, b Summary) int {
		if a.Mean < b.Mean {
			return -1
		}
		if a.Mean > b.Mean {
			return 1
		}
		return 0
	}
	if maximize {
		return slices.MaxFunc(valid, cmp), true
	}
	return slices.MinFunc(valid, cmp), true
}
