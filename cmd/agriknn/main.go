// Command agriknn computes the nearest neighbors of every record in an
// agricultural dataset, exactly or with locality-sensitive hashing.
//
// Usage:
//
//	agriknn generate -records 100000 -output farms.csv.zst
//	agriknn exact    -input farms.csv.zst -k 5 -output exact.csv
//	agriknn lsh      -input farms.csv.zst -k 5 -bands 8 -output lsh.csv
//	agriknn compare  -input farms.csv.zst -k 5 -progress
//
// Every flag can also be set in a YAML file (-config) or through an
// AGRIKNN_ environment variable, e.g. AGRIKNN_HASH_FUNCTIONS=12.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrirecsys/agriknn"
	"github.com/agrirecsys/agriknn/dataset"
	"github.com/agrirecsys/agriknn/index"
	agriprom "github.com/agrirecsys/agriknn/metrics/prometheus"
	"github.com/agrirecsys/agriknn/model"
	"github.com/agrirecsys/agriknn/testutil"
)

const usage = `usage: agriknn <command> [flags]

commands:
  generate   write a synthetic record file
  exact      exact neighbors under the combined metric
  lsh        approximate neighbors with banded LSH
  compare    run both and report timing, recall and precision

run "agriknn <command> -h" for the flags of a command.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd := args[0]
	switch cmd {
	case "generate", "exact", "lsh", "compare":
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := registerFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(*configPath, flagOverrides(fs))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger := newLogger(cfg, stderr).WithRunID(uuid.NewString())

	a := &app{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr}
	if err := a.execute(ctx, cmd); err != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmd, "error", err)
		return 1
	}
	return 0
}

func newLogger(cfg *Config, w io.Writer) *agriknn.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.LogLevel))
	if cfg.LogFormat == "json" {
		return agriknn.NewJSONLogger(w, level)
	}
	return agriknn.NewTextLogger(w, level)
}

type app struct {
	cfg    *Config
	logger *agriknn.Logger
	stdout io.Writer
	stderr io.Writer
}

func (a *app) execute(ctx context.Context, cmd string) error {
	if cmd == "generate" {
		return a.generate(ctx)
	}

	metrics, shutdown, err := a.serveMetrics(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	records, err := a.load(ctx)
	if err != nil {
		return err
	}

	bars := newProgressBars(a.cfg.Progress, a.stderr)
	defer bars.finish()

	e, err := agriknn.New(
		agriknn.WithK(a.cfg.K),
		agriknn.WithBands(a.cfg.Bands),
		agriknn.WithHashFunctionsPerBand(a.cfg.HashFunctionsPerBand),
		agriknn.WithSeed(a.cfg.Seed),
		agriknn.WithScale(a.cfg.Scale),
		agriknn.WithShards(a.cfg.Shards),
		agriknn.WithWorkers(a.cfg.Workers),
		agriknn.WithLogger(a.logger),
		agriknn.WithMetricsCollector(metrics),
		agriknn.WithProgress(bars.update),
	)
	if err != nil {
		return err
	}

	switch cmd {
	case "compare":
		cmp, err := e.Compare(ctx, records)
		if err != nil {
			return err
		}
		bars.finish()
		return a.report(cmp)
	default:
		s, err := agriknn.ParseStrategy(cmd)
		if err != nil {
			return err
		}
		res, err := e.Search(ctx, s, records)
		if err != nil {
			return err
		}
		bars.finish()
		return a.writeNeighbors(res)
	}
}

func (a *app) generate(ctx context.Context) error {
	records := testutil.NewRNG(a.cfg.Seed).Records(a.cfg.Records)

	var err error
	if a.cfg.Output == "" {
		err = dataset.WriteRecords(a.stdout, records)
	} else {
		err = dataset.WriteRecordsFile(a.cfg.Output, records)
	}
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "records generated", "records", len(records), "seed", a.cfg.Seed, "output", a.cfg.Output)
	return nil
}

func (a *app) load(ctx context.Context) ([]model.Record, error) {
	if a.cfg.Input == "" {
		return nil, errors.New("no input file, set -input")
	}

	start := time.Now()
	records, stats, err := dataset.ReadFile(a.cfg.Input, func(o *dataset.ReadOptions) {
		o.SkipInvalid = a.cfg.SkipInvalid
		o.Logger = a.logger.Logger
	})
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "records loaded",
		"input", a.cfg.Input,
		"records", len(records),
		"skipped", stats.Skipped,
		"elapsed", time.Since(start),
	)
	return records, nil
}

func (a *app) writeNeighbors(res index.Results) error {
	if a.cfg.Output == "" {
		return dataset.WriteNeighbors(a.stdout, res)
	}
	return dataset.WriteNeighborsFile(a.cfg.Output, res)
}

func (a *app) report(cmp *agriknn.Comparison) error {
	_, err := fmt.Fprintf(a.stdout,
		"strategy  duration      short\n"+
			"exact     %-12s  %d\n"+
			"lsh       %-12s  %d\n"+
			"\n"+
			"k=%d queries=%d recall=%.4f precision=%.4f largest_bucket=%d\n",
		cmp.ExactDuration.Round(time.Microsecond), cmp.Exact.Short(cmp.K),
		cmp.ApproximateDuration.Round(time.Microsecond), cmp.ApproximateShort,
		cmp.K, cmp.Queries, cmp.Recall, cmp.Precision, cmp.Index.LargestBucket,
	)
	return err
}

// serveMetrics exposes a Prometheus endpoint when an address is configured.
func (a *app) serveMetrics(ctx context.Context) (agriknn.MetricsCollector, func(), error) {
	if a.cfg.MetricsAddr == "" {
		return agriknn.NoopMetricsCollector{}, func() {}, nil
	}

	reg := prometheus.NewRegistry()
	collector := agriprom.New(reg)

	ln, err := net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.ErrorContext(ctx, "metrics server failed", "error", err)
		}
	}()
	a.logger.InfoContext(ctx, "serving metrics", "addr", ln.Addr().String())

	return collector, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}, nil
}

// progressBars shows one bar per strategy.
type progressBars struct {
	enabled bool
	out     io.Writer

	mu   sync.Mutex
	bars map[agriknn.Strategy]*pb.ProgressBar
}

func newProgressBars(enabled bool, out io.Writer) *progressBars {
	return &progressBars{enabled: enabled, out: out, bars: make(map[agriknn.Strategy]*pb.ProgressBar)}
}

func (p *progressBars) update(s agriknn.Strategy, done, total int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	bar, ok := p.bars[s]
	if !ok {
		bar = pb.New(total).SetWriter(p.out).Set("prefix", s.String()+" ").Start()
		p.bars[s] = bar
	}
	if int64(done) > bar.Current() {
		bar.SetCurrent(int64(done))
	}
}

func (p *progressBars) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for s, bar := range p.bars {
		bar.Finish()
		delete(p.bars, s)
	}
}
