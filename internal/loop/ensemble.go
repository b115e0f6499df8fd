package loop

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/pidloop/internal/dynamo"
)

// Build returns a fresh runner for one ensemble member. Controllers, metrics
// and integrators carry state, so members must not share them.
type Build func() (*Runner, error)

// Ensemble repeats one loop configuration over consecutive jitter seeds.
type Ensemble struct {
	build     Build
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(build Build, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		build:     build,
		numRuns:   numRuns,
		seedStart: seedStart,
		workers:   runtime.GOMAXPROCS(0),
	}
}

// Run executes every member and returns results indexed by member, member i
// using seed seedStart+i. The first error cancels the remaining members.
func (e *Ensemble) Run(ctx context.Context, x0 dynamo.State, cfg Config) ([]*Result, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("%w: ensemble needs at least one run, got %d", dynamo.ErrInvalidConfig, e.numRuns)
	}

	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			r, err := e.build()
			if err != nil {
				return err
			}

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			res, err := r.Run(ctx, x0, cfgCopy)
			if err != nil {
				return fmt.Errorf("run %d: %w", idx, err)
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Spread summarises one metric across ensemble members.
type Spread struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	N    int
}

// Summarize folds each metric over the results. Non-finite values are left
// out, so N may be smaller than len(results).
func Summarize(results []*Result) map[string]Spread {
	values := make(map[string][]float64)
	for _, r := range results {
		if r == nil {
			continue
		}
		for name, v := range r.Metrics {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values[name] = append(values[name], v)
		}
	}

	out := make(map[string]Spread, len(values))
	for name, vs := range values {
		sort.Float64s(vs)
		sum := 0.0
		for _, v := range vs {
			sum += v
		}
		mean := sum / float64(len(vs))

		varSum := 0.0
		for _, v := range vs {
			d := v - mean
			varSum += d * d
		}

		out[name] = Spread{
			Mean: mean,
			Std:  math.Sqrt(varSum / float64(len(vs))),
			Min:  vs[0],
			Max:  vs[len(vs)-1],
			N:    len(vs),
		}
	}
	return out
}
