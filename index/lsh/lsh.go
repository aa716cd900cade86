package lsh

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/agrirecsys/agriknn/distance"
	"github.com/agrirecsys/agriknn/index"
	"github.com/agrirecsys/agriknn/model"
)

// Compile-time check to ensure Index satisfies the searcher interface.
var _ index.Searcher = (*Index)(nil)

const (
	// DefaultSeed seeds the projection weights unless Options.Seed is set.
	DefaultSeed int64 = 42

	// DefaultScale multiplies projections before truncation.
	DefaultScale = 1000.0
)

var (
	// ErrInvalidScale is returned when the projection scale is not positive.
	ErrInvalidScale = errors.New("projection scale must be positive")

	// ErrInvalidShards is returned when a band table has no shards.
	ErrInvalidShards = errors.New("shards per band must be positive")

	// ErrIndexNotEmpty is returned by FindNeighbors on an index that already holds records.
	ErrIndexNotEmpty = errors.New("index already holds records")
)

// Options contains configuration options for the LSH index.
type Options struct {
	// Bands is the number of independent hash tables (B). More bands raise
	// recall and the number of false positives to filter.
	Bands int

	// HashFunctionsPerBand is the number of projection weights per band (H).
	// The 4-dimensional feature vector is cycled to this length.
	HashFunctionsPerBand int

	// K is the number of neighbors returned per query after refinement.
	K int

	// Seed makes the weights reproducible: equal options give equal bucketing.
	Seed int64

	// Scale multiplies the projection before truncation to an integer.
	Scale float64

	// Shards is the number of lock shards per band table.
	Shards int

	// Workers bounds concurrent inserts and queries. Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Logger receives build statistics and warnings. Nil discards them.
	Logger *slog.Logger

	// Progress, if set, is called after each query of FindNeighbors with the
	// number of queries completed so far. It may be called concurrently.
	Progress func(done int)
}

// DefaultOptions contains the default configuration options for the LSH index.
var DefaultOptions = Options{
	Bands:                5,
	HashFunctionsPerBand: 10,
	K:                    3,
	Seed:                 DefaultSeed,
	Scale:                DefaultScale,
	Shards:               16,
}

// Index is an approximate neighbor index.
// Insert, BulkInsert and all queries are safe for concurrent use.
type Index struct {
	opts    Options
	weights [][]float64 // B x H, read-only after New
	tables  []*bucketTable
	size    atomic.Int64
	logger  *slog.Logger
}

// New creates an empty index and draws its projection weights.
func New(optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := validateOptions(&opts); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	weights := make([][]float64, opts.Bands)
	tables := make([]*bucketTable, opts.Bands)
	for b := range weights {
		weights[b] = make([]float64, opts.HashFunctionsPerBand)
		for j := range weights[b] {
			weights[b][j] = rng.Float64() - 0.5
		}
		tables[b] = newBucketTable(opts.Shards)
	}

	return &Index{
		opts:    opts,
		weights: weights,
		tables:  tables,
		logger:  logger,
	}, nil
}

func validateOptions(o *Options) error {
	if o.Bands < 1 {
		return index.ErrInvalidBands
	}
	if o.HashFunctionsPerBand < 1 {
		return index.ErrInvalidHashFunctions
	}
	if err := index.ValidateK(o.K); err != nil {
		return err
	}
	if !(o.Scale > 0) {
		return ErrInvalidScale
	}
	if o.Shards < 1 {
		return ErrInvalidShards
	}
	if o.Workers < 0 {
		return index.ErrInvalidWorkers
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return nil
}

// Name returns the index name.
func (*Index) Name() string { return "LSH" }

// K returns the configured neighbor count.
func (ix *Index) K() int { return ix.opts.K }

// Len returns the number of inserted records.
func (ix *Index) Len() int { return int(ix.size.Load()) }

func (ix *Index) validBand(band int) bool {
	return band >= 0 && band < len(ix.tables)
}

// Weights returns a copy of the projection weights of band, or nil if band
// is out of range.
func (ix *Index) Weights(band int) []float64 {
	if !ix.validBand(band) {
		return nil
	}
	return slices.Clone(ix.weights[band])
}

// HashCode turns a scaled, truncated projection into a bucket code.
// The code depends only on the integer value, never on process state.
func HashCode(projection int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(projection))
	return xxhash.Sum64(buf[:])
}

// cycled returns the feature vector of r repeated to length H.
func (ix *Index) cycled(r model.Record) []float64 {
	f := r.Features()
	vec := make([]float64, ix.opts.HashFunctionsPerBand)
	for i := range vec {
		vec[i] = f[i%len(f)]
	}
	return vec
}

func (ix *Index) project(vec []float64, band int) int64 {
	return truncate(floats.Dot(vec, ix.weights[band]) * ix.opts.Scale)
}

// truncate rounds x toward zero, saturating at the int64 range.
// NaN maps to 0.
func truncate(x float64) int64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= 0x1p63:
		return math.MaxInt64
	case x <= -0x1p63:
		return math.MinInt64
	default:
		return int64(x)
	}
}

// Projection returns the scaled, truncated dot product of r with band's weights.
// Projections beyond the int64 range saturate. band must be in [0, Bands).
func (ix *Index) Projection(r model.Record, band int) int64 {
	return ix.project(ix.cycled(r), band)
}

// Hash returns the bucket code of r in band. band must be in [0, Bands).
func (ix *Index) Hash(r model.Record, band int) uint64 {
	return HashCode(ix.Projection(r, band))
}

// codes returns the bucket code of r in every band.
func (ix *Index) codes(r model.Record) []uint64 {
	vec := ix.cycled(r)
	out := make([]uint64, len(ix.tables))
	for b := range out {
		out[b] = HashCode(ix.project(vec, b))
	}
	return out
}

// Insert adds r to its bucket in every band.
// Inserting the same ID twice stores it twice; callers must not do that.
func (ix *Index) Insert(r model.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for b, code := range ix.codes(r) {
		ix.tables[b].append(code, r)
	}
	ix.size.Add(1)
	return nil
}

// BulkInsert inserts records concurrently and returns the number inserted.
// Invalid records are logged and skipped. Bucket membership does not depend
// on the order in which workers finish.
func (ix *Index) BulkInsert(ctx context.Context, records []model.Record) (int, error) {
	start := time.Now()
	var inserted atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)

	for _, r := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := ix.Insert(r); err != nil {
				ix.logger.WarnContext(ctx, "skipping invalid record", "id", r.ID(), "error", err)
				return nil
			}
			inserted.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(inserted.Load()), err
	}
	if err := ctx.Err(); err != nil {
		return int(inserted.Load()), err
	}

	ix.logger.DebugContext(ctx, "bulk insert completed",
		"inserted", inserted.Load(),
		"skipped", int64(len(records))-inserted.Load(),
		"bands", ix.opts.Bands,
		"elapsed", time.Since(start),
	)

	return int(inserted.Load()), nil
}

// ApproximateNeighbors returns every stored record sharing a bucket with
// query in at least one band, deduplicated by ID and sorted by ID.
// The query itself is included if it was inserted; removing it is up to the caller.
func (ix *Index) ApproximateNeighbors(query model.Record) []model.Record {
	seen := roaring64.New()
	var out []model.Record
	for b, code := range ix.codes(query) {
		ix.tables[b].visit(code, func(r model.Record) {
			if seen.CheckedAdd(uint64(r.ID())) {
				out = append(out, r)
			}
		})
	}
	slices.SortFunc(out, func(a, b model.Record) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return out
}

// Neighbors returns the k nearest candidates of query under the refinement
// metric, excluding query itself. The list is short, never padded, when fewer
// than k candidates collide with query.
func (ix *Index) Neighbors(query model.Record) ([]model.Neighbor, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return index.Rank(query, ix.ApproximateNeighbors(query), ix.opts.K, distance.Refinement, nil)
}

// Search runs Neighbors for every query concurrently. Invalid queries are
// logged and get no entry.
func (ix *Index) Search(ctx context.Context, queries []model.Record) (index.Results, error) {
	lists := make([][]model.Neighbor, len(queries))
	ok := make([]bool, len(queries))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)

	for i, q := range queries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			nb, err := ix.Neighbors(q)
			if err != nil {
				ix.logger.WarnContext(ctx, "skipping invalid query", "id", q.ID(), "error", err)
				return nil
			}
			lists[i], ok[i] = nb, true
			if ix.opts.Progress != nil {
				ix.opts.Progress(int(done.Add(1)))
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

	results := make(index.Results, len(queries))
	for i, q := range queries {
		if ok[i] {
			results[q.ID()] = lists[i]
		}
	}
	return results, nil
}

// FindNeighbors indexes records and then searches the neighbors of each.
// The index must be empty.
func (ix *Index) FindNeighbors(ctx context.Context, records []model.Record) (index.Results, error) {
	if ix.Len() > 0 {
		return nil, ErrIndexNotEmpty
	}
	if _, err := ix.BulkInsert(ctx, records); err != nil {
		return nil, err
	}
	results, err := ix.Search(ctx, records)
	if err != nil {
		return nil, err
	}

	st := ix.Stats()
	ix.logger.DebugContext(ctx, "approximate search completed",
		"queries", len(results),
		"k", ix.opts.K,
		"short", results.Short(ix.opts.K),
		"largest_bucket", st.LargestBucket,
	)
	return results, nil
}

// Bucket returns the IDs stored under code in band, sorted by ID.
// An out-of-range band has no buckets.
func (ix *Index) Bucket(band int, code uint64) []model.ID {
	if !ix.validBand(band) {
		return nil
	}
	ids := ix.tables[band].members(code)
	slices.Sort(ids)
	return ids
}

// Codes returns the non-empty bucket codes of band, sorted.
// An out-of-range band has no buckets.
func (ix *Index) Codes(band int) []uint64 {
	if !ix.validBand(band) {
		return nil
	}
	codes := ix.tables[band].codes()
	slices.Sort(codes)
	return codes
}

// BandStats describes the buckets of one band.
type BandStats struct {
	Buckets int // non-empty buckets
	Entries int // stored records, equal to the index size
	Largest int // size of the largest bucket
}

// Stats describes the index contents.
type Stats struct {
	Bands                int
	HashFunctionsPerBand int
	Records              int
	LargestBucket        int
	PerBand              []BandStats
}

// Stats returns a snapshot of bucket statistics.
func (ix *Index) Stats() Stats {
	st := Stats{
		Bands:                ix.opts.Bands,
		HashFunctionsPerBand: ix.opts.HashFunctionsPerBand,
		Records:              ix.Len(),
		PerBand:              make([]BandStats, len(ix.tables)),
	}
	for b, t := range ix.tables {
		ts := t.stats()
		st.PerBand[b] = BandStats{Buckets: ts.buckets, Entries: ts.entries, Largest: ts.largest}
		st.LargestBucket = max(st.LargestBucket, ts.largest)
	}
	return st
}
