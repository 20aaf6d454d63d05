// Package evaluator compares every unordered pair of samples with one metric.
package evaluator

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"imagecompare/logging"
	"imagecompare/metrics"
	"imagecompare/types"
)

// DefaultNearDuplicateThreshold flags pairs scoring above it
const DefaultNearDuplicateThreshold = 0.9

// Accumulator collects pair results. Add may be called concurrently.
type Accumulator interface {
	Add(result types.PairResult)
}

// Matrix is the in-memory similarity matrix
type Matrix struct {
	mu      sync.Mutex
	results []types.PairResult
}

// NewMatrix creates an empty matrix with room for n pairs
func NewMatrix(n int) *Matrix {
	return &Matrix{results: make([]types.PairResult, 0, n)}
}

func (m *Matrix) Add(result types.PairResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

// Results returns the collected results in emission (pair generation) order
func (m *Matrix) Results() []types.PairResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.PairResult, len(m.results))
	copy(out, m.results)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Len returns the number of collected results
func (m *Matrix) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

// Pair is one unordered pair of sample indexes with i < j
type Pair struct {
	Index int
	I, J  int
}

// Pairs enumerates every unordered pair of n items exactly once
func Pairs(n int) []Pair {
	if n < 2 {
		return nil
	}
	pairs := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, Pair{Index: len(pairs), I: i, J: j})
		}
	}
	return pairs
}

// Evaluator scores all pairs with one metric
type Evaluator struct {
	Metric                 metrics.Metric
	Workers                int
	NearDuplicateThreshold float64
}

// New creates an evaluator with the default highlight threshold
func New(metric metrics.Metric, workers int) *Evaluator {
	return &Evaluator{
		Metric:                 metric,
		Workers:                workers,
		NearDuplicateThreshold: DefaultNearDuplicateThreshold,
	}
}

// Evaluate scores every unordered pair of samples into acc. Per-pair failures
// are recorded in the result and never abort the batch; only cancellation or
// a failing Prepare returns an error.
func (e *Evaluator) Evaluate(ctx context.Context, samples []*types.Sample, acc Accumulator) error {
	if e.Metric == nil {
		return errors.New("evaluator has no metric")
	}
	pairs := Pairs(len(samples))
	if len(pairs) == 0 {
		logging.DebugLog("Fewer than two samples, nothing to compare")
		return nil
	}

	if p, ok := e.Metric.(metrics.Preparer); ok {
		if err := p.Prepare(ctx, samples); err != nil {
			return errors.Wrapf(err, "prepare %s", e.Metric.Name())
		}
	}

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, p := range pairs {
		if gctx.Err() != nil {
			break
		}
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			acc.Add(e.score(p, samples[p.I], samples[p.J]))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (e *Evaluator) score(p Pair, a, b *types.Sample) types.PairResult {
	result := types.PairResult{Index: p.Index, A: a.Name, B: b.Name}

	score, err := e.Metric.Score(a, b)
	if err != nil {
		result.Err = err
		logging.LogPairFailed(a.Name, b.Name, err)
		return result
	}

	result.Score = score
	result.NearDuplicate = score > e.NearDuplicateThreshold
	return result
}

// Group holds every comparison of one image, best match first
type Group struct {
	Name    string
	Matches []Match
}

// Match is one comparison seen from the grouping image
type Match struct {
	Index         int
	Other         string
	Score         float64
	NearDuplicate bool
	Err           error
}

// Best returns the highest successful score of the group
func (g Group) Best() float64 {
	for _, m := range g.Matches {
		if m.Err == nil {
			return m.Score
		}
	}
	return -1
}

// Ranked groups results by image. Each group lists that image's comparisons
// by descending score; groups are ordered by their best score. Failed
// comparisons sink to the end of their group.
func Ranked(results []types.PairResult) []Group {
	order := make([]string, 0)
	groups := make(map[string][]Match)

	add := func(name string, m Match) {
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], m)
	}

	ok := lo.Filter(results, func(r types.PairResult, _ int) bool { return r.Err == nil })
	failed := lo.Filter(results, func(r types.PairResult, _ int) bool { return r.Err != nil })

	for _, r := range append(ok, failed...) {
		add(r.A, Match{Index: r.Index, Other: r.B, Score: r.Score, NearDuplicate: r.NearDuplicate, Err: r.Err})
		add(r.B, Match{Index: r.Index, Other: r.A, Score: r.Score, NearDuplicate: r.NearDuplicate, Err: r.Err})
	}

	out := lo.Map(order, func(name string, _ int) Group {
		matches := groups[name]
		sort.SliceStable(matches, func(i, j int) bool {
			mi, mj := matches[i], matches[j]
			if (mi.Err == nil) != (mj.Err == nil) {
				return mi.Err == nil
			}
			if mi.Score != mj.Score {
				return mi.Score > mj.Score
			}
			return mi.Index < mj.Index
		})
		return Group{Name: name, Matches: matches}
	})

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Best() > out[j].Best()
	})
	return out
}

// NearDuplicates returns the flagged results in emission order
func NearDuplicates(results []types.PairResult) []types.PairResult {
	return lo.Filter(results, func(r types.PairResult, _ int) bool { return r.NearDuplicate })
}
