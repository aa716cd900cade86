package agriknn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agrirecsys/agriknn/distance"
	"github.com/agrirecsys/agriknn/index"
	"github.com/agrirecsys/agriknn/index/flat"
	"github.com/agrirecsys/agriknn/index/lsh"
	"github.com/agrirecsys/agriknn/model"
)

// Strategy selects how neighbors are computed.
type Strategy int

const (
	// StrategyExact compares every pair of records under the combined metric.
	StrategyExact Strategy = iota
	// StrategyApproximate ranks LSH candidates under the Euclidean metric.
	StrategyApproximate
)

// String returns the strategy name used in logs, metrics and the CLI.
func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategyApproximate:
		return "lsh"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// ParseStrategy is the inverse of Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return StrategyExact, nil
	case "lsh", "approximate":
		return StrategyApproximate, nil
	default:
		return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, s)
	}
}

// Engine runs neighbor computations over record collections.
// It is safe for concurrent use; every run builds its own index.
type Engine struct {
	opts options
}

// New creates an engine. Invalid settings are reported here, never clamped.
func New(optFns ...Option) (*Engine, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Engine{opts: opts}

	if _, err := e.newExact(distance.MetricCombined, 0); err != nil {
		return nil, translateError(err)
	}
	if _, err := e.newIndex(0); err != nil {
		return nil, translateError(err)
	}

	return e, nil
}

// K returns the configured neighbor count.
func (e *Engine) K() int { return e.opts.k }

func (e *Engine) progress(s Strategy, total int) func(done int) {
	if e.opts.progress == nil {
		return nil
	}
	return func(done int) { e.opts.progress(s, done, total) }
}

func (e *Engine) newExact(metric distance.Metric, total int) (*flat.Engine, error) {
	return flat.New(func(o *flat.Options) {
		o.K = e.opts.k
		o.Metric = metric
		o.Workers = e.opts.workers
		o.Logger = e.opts.logger.Logger
		if metric == distance.MetricCombined {
			o.Progress = e.progress(StrategyExact, total)
		}
	})
}

func (e *Engine) newIndex(total int) (*lsh.Index, error) {
	return lsh.New(func(o *lsh.Options) {
		o.Bands = e.opts.bands
		o.HashFunctionsPerBand = e.opts.hashFunctionsPerBand
		o.K = e.opts.k
		o.Seed = e.opts.seed
		o.Scale = e.opts.scale
		o.Shards = e.opts.shards
		o.Workers = e.opts.workers
		o.Logger = e.opts.logger.Logger
		o.Progress = e.progress(StrategyApproximate, total)
	})
}

// Search dispatches to Exact or Approximate.
func (e *Engine) Search(ctx context.Context, s Strategy, records []model.Record) (index.Results, error) {
	switch s {
	case StrategyExact:
		return e.Exact(ctx, records)
	case StrategyApproximate:
		return e.Approximate(ctx, records)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrInvalidConfig, int(s))
	}
}

// Exact returns the k nearest neighbors of every record under the combined
// metric. Records failing validation are logged and left out; every valid
// record gets min(k, valid-1) neighbors.
func (e *Engine) Exact(ctx context.Context, records []model.Record) (index.Results, error) {
	if err := model.CheckUnique(records); err != nil {
		return nil, translateError(err)
	}
	return e.exact(ctx, records)
}

func (e *Engine) exact(ctx context.Context, records []model.Record) (index.Results, error) {
	start := time.Now()

	eng, err := e.newExact(distance.MetricCombined, len(records))
	if err != nil {
		return nil, translateError(err)
	}

	res, err := eng.FindNeighbors(ctx, records)
	short := 0
	if err == nil {
		short = res.Short(e.opts.k)
	}

	e.opts.metricsCollector.RecordSearch(StrategyExact, len(res), short, time.Since(start), err)
	e.opts.logger.LogSearch(ctx, StrategyExact, len(res), e.opts.k, short, err)

	return res, err
}

// Approximate builds an LSH index over records and returns, for every record,
// up to k neighbors among the records sharing one of its buckets, ranked by
// Euclidean distance. Lists are short, never padded, when buckets are sparse.
func (e *Engine) Approximate(ctx context.Context, records []model.Record) (index.Results, error) {
	if err := model.CheckUnique(records); err != nil {
		return nil, translateError(err)
	}
	res, _, err := e.approximate(ctx, records)
	return res, err
}

func (e *Engine) approximate(ctx context.Context, records []model.Record) (index.Results, lsh.Stats, error) {
	ix, err := e.newIndex(len(records))
	if err != nil {
		return nil, lsh.Stats{}, translateError(err)
	}

	start := time.Now()
	n, err := ix.BulkInsert(ctx, records)
	st := ix.Stats()
	e.opts.metricsCollector.RecordBuild(n, st.LargestBucket, time.Since(start), err)
	e.opts.logger.LogBuild(ctx, n, st.Bands, err)
	if err != nil {
		return nil, st, err
	}

	start = time.Now()
	res, err := ix.Search(ctx, records)
	short := 0
	if err == nil {
		short = res.Short(e.opts.k)
	}

	e.opts.metricsCollector.RecordSearch(StrategyApproximate, len(res), short, time.Since(start), err)
	e.opts.logger.LogSearch(ctx, StrategyApproximate, len(res), e.opts.k, short, err)

	return res, st, err
}

// Comparison reports both strategies run on the same records.
type Comparison struct {
	K       int
	Queries int

	Exact       index.Results
	Approximate index.Results

	ExactDuration       time.Duration
	ApproximateDuration time.Duration

	// Recall and Precision are means over all queries of the approximate
	// lists measured against exact lists under the Euclidean metric.
	Recall    float64
	Precision float64

	// ApproximateShort counts queries with fewer than K approximate neighbors.
	ApproximateShort int

	Index lsh.Stats
}

// Compare runs both strategies on records and measures the approximate
// results against an exact ranking under the metric LSH refines with.
func (e *Engine) Compare(ctx context.Context, records []model.Record) (*Comparison, error) {
	if err := model.CheckUnique(records); err != nil {
		return nil, translateError(err)
	}

	cmp := &Comparison{K: e.opts.k}

	start := time.Now()
	exact, err := e.exact(ctx, records)
	if err != nil {
		return nil, err
	}
	cmp.Exact, cmp.ExactDuration = exact, time.Since(start)

	start = time.Now()
	approx, st, err := e.approximate(ctx, records)
	if err != nil {
		return nil, err
	}
	cmp.Approximate, cmp.ApproximateDuration, cmp.Index = approx, time.Since(start), st
	cmp.ApproximateShort = approx.Short(e.opts.k)

	truthEngine, err := e.newExact(distance.MetricRefinement, len(records))
	if err != nil {
		return nil, translateError(err)
	}
	truth, err := truthEngine.FindNeighbors(ctx, records)
	if err != nil {
		return nil, err
	}

	cmp.Recall, cmp.Precision, cmp.Queries = meanPrecisionRecall(approx, truth)
	e.opts.logger.LogCompare(ctx, e.opts.k, cmp.Recall, cmp.Precision)

	return cmp, nil
}

// meanPrecisionRecall averages per-query recall and precision over the
// queries of truth.
func meanPrecisionRecall(approx, truth index.Results) (recall, precision float64, queries int) {
	for id, want := range truth {
		r, p := precisionRecall(approx[id], want)
		recall += r
		precision += p
		queries++
	}
	if queries == 0 {
		return 1, 1, 0
	}
	return recall / float64(queries), precision / float64(queries), queries
}

// precisionRecall compares neighbor lists by ID membership.
// Two empty lists agree perfectly.
func precisionRecall(prediction, groundTruth []model.Neighbor) (recall, precision float64) {
	if len(prediction) == 0 && len(groundTruth) == 0 {
		return 1, 1
	}
	relevant := make(map[model.ID]struct{}, len(groundTruth))
	for _, n := range groundTruth {
		relevant[n.ID()] = struct{}{}
	}
	valid := 0
	for _, n := range prediction {
		if _, ok := relevant[n.ID()]; ok {
			valid++
		}
	}
	if len(prediction) > 0 {
		precision = float64(valid) / float64(len(prediction))
	}
	if len(groundTruth) > 0 {
		recall = float64(valid) / float64(len(groundTruth))
	} else {
		recall = 1
	}
	return recall, precision
}
