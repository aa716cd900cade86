// Package flat provides the exact neighbor engine: every record is compared
// against every other record.
package flat

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/agrirecsys/agriknn/distance"
	"github.com/agrirecsys/agriknn/index"
	"github.com/agrirecsys/agriknn/model"
)

// Compile-time check to ensure Engine satisfies the searcher interface.
var _ index.Searcher = (*Engine)(nil)

// Options contains configuration options for the exact engine.
type Options struct {
	// K is the number of neighbors returned per query. It must be >= 1.
	K int

	// Metric selects the distance function. Defaults to the combined metric.
	Metric distance.Metric

	// Workers bounds the number of queries processed concurrently.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Logger receives warnings about skipped records. Nil discards them.
	Logger *slog.Logger

	// Progress, if set, is called after each query with the number of
	// queries completed so far. It may be called from several goroutines.
	Progress func(done int)
}

// DefaultOptions contains the default configuration options for the exact engine.
var DefaultOptions = Options{
	K:      3,
	Metric: distance.MetricCombined,
}

// Engine computes exact k-nearest neighbors.
// It holds no per-run state and is safe for concurrent use.
type Engine struct {
	opts         Options
	distanceFunc distance.Func
	logger       *slog.Logger
}

// New creates a new exact engine.
func New(optFns ...func(o *Options)) (*Engine, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := index.ValidateK(opts.K); err != nil {
		return nil, err
	}
	if opts.Workers < 0 {
		return nil, index.ErrInvalidWorkers
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	fn, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		opts:         opts,
		distanceFunc: fn,
		logger:       logger,
	}, nil
}

// Name returns the engine name.
func (*Engine) Name() string { return "Flat" }

// K returns the configured neighbor count.
func (e *Engine) K() int { return e.opts.K }

// Search ranks every record in records against query and returns the k
// nearest, excluding query itself and any invalid record.
func (e *Engine) Search(query model.Record, records []model.Record) ([]model.Neighbor, error) {
	return index.Rank(query, records, e.opts.K, e.distanceFunc, invalid)
}

// FindNeighbors returns the k nearest neighbors of every record.
//
// Queries are independent and run on a bounded worker pool sharing only the
// read-only record slice. A record failing validation gets no entry in the
// result and is never offered as a candidate; the rest of the batch is
// unaffected. Returns ctx.Err() if the context is cancelled before all
// queries complete.
func (e *Engine) FindNeighbors(ctx context.Context, records []model.Record) (index.Results, error) {
	valid := make([]bool, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			e.logger.WarnContext(ctx, "skipping invalid record", "id", r.ID(), "error", err)
			continue
		}
		valid[i] = true
	}

	lists := make([][]model.Neighbor, len(records))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i := range records {
		if !valid[i] {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			nb, err := e.search(records[i], records, valid)
			if err != nil {
				return err
			}
			lists[i] = nb
			if e.opts.Progress != nil {
				e.opts.Progress(int(done.Add(1)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make(index.Results, len(records))
	for i, r := range records {
		if valid[i] {
			results[r.ID()] = lists[i]
		}
	}

	e.logger.DebugContext(ctx, "exact search completed",
		"queries", len(results),
		"k", e.opts.K,
		"short", results.Short(e.opts.K),
	)

	return results, nil
}

// search is the inner loop of FindNeighbors with validity precomputed.
func (e *Engine) search(query model.Record, records []model.Record, valid []bool) ([]model.Neighbor, error) {
	return index.Rank(query, records, e.opts.K, e.distanceFunc, func(i int, _ model.Record) bool {
		return !valid[i]
	})
}

func invalid(_ int, r model.Record) bool {
	return r.Validate() != nil
}
