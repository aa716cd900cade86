package agriknn

import (
	"github.com/agrirecsys/agriknn/index/flat"
	"github.com/agrirecsys/agriknn/index/lsh"
)

type options struct {
	k                    int
	bands                int
	hashFunctionsPerBand int
	seed                 int64
	scale                float64
	shards               int
	workers              int
	metricsCollector     MetricsCollector
	logger               *Logger
	progress             func(strategy Strategy, done, total int)
}

func defaultOptions() options {
	return options{
		k:                    flat.DefaultOptions.K,
		bands:                lsh.DefaultOptions.Bands,
		hashFunctionsPerBand: lsh.DefaultOptions.HashFunctionsPerBand,
		seed:                 lsh.DefaultOptions.Seed,
		scale:                lsh.DefaultOptions.Scale,
		shards:               lsh.DefaultOptions.Shards,
		metricsCollector:     NoopMetricsCollector{},
		logger:               NoopLogger(),
	}
}

// Option configures an Engine.
type Option func(*options)

// WithK sets the number of neighbors per record. Default 3.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithBands sets the number of LSH bands. Default 5.
func WithBands(bands int) Option {
	return func(o *options) {
		o.bands = bands
	}
}

// WithHashFunctionsPerBand sets the number of projection weights per band. Default 10.
func WithHashFunctionsPerBand(h int) Option {
	return func(o *options) {
		o.hashFunctionsPerBand = h
	}
}

// WithSeed sets the seed of the LSH projection weights. Default 42.
// Two engines with equal seeds and band settings bucket records identically.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithScale sets the multiplier applied to projections before truncation. Default 1000.
func WithScale(scale float64) Option {
	return func(o *options) {
		o.scale = scale
	}
}

// WithShards sets the number of lock shards per band table.
func WithShards(shards int) Option {
	return func(o *options) {
		o.shards = shards
	}
}

// WithWorkers bounds the concurrency of both strategies.
// Zero means runtime.GOMAXPROCS(0).
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &agriknn.BasicMetricsCollector{}
//	e, _ := agriknn.New(agriknn.WithMetricsCollector(metrics))
//	// ... use e ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.SearchQueries, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := agriknn.NewJSONLogger(os.Stderr, slog.LevelInfo)
//	e, _ := agriknn.New(agriknn.WithLogger(logger))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithProgress registers a callback reporting completed queries of a run.
// It may be called concurrently from worker goroutines.
func WithProgress(fn func(strategy Strategy, done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}
