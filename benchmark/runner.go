package benchmark

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/asafpamzn/valkey-benchmark-go/client"
	"github.com/asafpamzn/valkey-benchmark-go/logger"
)

// ClientFactory creates one connected client per worker. Workers own their
// client exclusively for the run's lifetime.
type ClientFactory func() (client.Client, error)

// Runner owns the worker pool for a single benchmark run: it spawns the
// configured number of workers, enforces the stop conditions, drives the
// periodic live report and assembles the final result. Each run constructs
// its own Recorder and Pacer, so repeated runs do not interfere.
type Runner struct {
	cfg       *Config
	newClient ClientFactory
	strategy  Strategy
	log       *logger.Logger
	reportOut io.Writer

	dispatched atomic.Uint64
}

type Option func(*Runner)

// WithStrategy overrides the strategy derived from the config.
func WithStrategy(s Strategy) Option {
	return func(r *Runner) { r.strategy = s }
}

func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithReportWriter redirects the periodic status lines.
func WithReportWriter(w io.Writer) Option {
	return func(r *Runner) { r.reportOut = w }
}

func NewRunner(cfg *Config, factory ClientFactory, opts ...Option) (*Runner, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:       cfg,
		newClient: factory,
		log:       logger.Default,
		reportOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.strategy == nil {
		s, err := NewStrategy(cfg)
		if err != nil {
			return nil, err
		}
		r.strategy = s
	}
	return r, nil
}

// Run executes the benchmark until a stop condition fires or ctx is
// cancelled. Cancellation drains: workers stop taking new iterations while
// in-flight requests complete, and the partial result is still valid.
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	clients := make([]client.Client, r.cfg.Clients)
	for i := range clients {
		c, err := r.newClient()
		if err != nil {
			for _, prev := range clients[:i] {
				_ = prev.Close()
			}
			return RunResult{}, fmt.Errorf("client %d: %w", i, err)
		}
		clients[i] = c
	}

	runCtx := ctx
	if r.cfg.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Duration)
		defer cancel()
	}

	rec := NewRecorder()
	pacer := NewPacer(r.cfg)
	start := time.Now()

	var wg sync.WaitGroup
	seed := start.UnixNano()
	for i, c := range clients {
		wg.Add(1)
		gen := NewKeyGenerator(r.cfg, seed+int64(i))
		go r.work(runCtx, i, c, gen, pacer, rec, &wg)
	}

	reportDone := make(chan struct{})
	var reportWG sync.WaitGroup
	if r.cfg.ReportingPeriod > 0 {
		reportWG.Add(1)
		go func() {
			defer reportWG.Done()
			r.report(rec, pacer, start, reportDone)
		}()
	}

	wg.Wait()
	close(reportDone)
	reportWG.Wait()
	end := time.Now()

	return rec.Result(start, end), nil
}

// work is one worker's loop: key, pacing slot, timed strategy call, record.
// A panic escaping the strategy or client is contained here: the worker
// exits and the run continues with reduced concurrency.
func (r *Runner) work(ctx context.Context, id int, c client.Client, gen KeyGenerator, pacer Pacer, rec *Recorder, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		_ = c.Close()
		if p := recover(); p != nil {
			r.log.Error("worker", "worker %d aborted: %v", id, p)
		}
	}()

	// In-flight requests are never aborted mid-flight: once dispatched, the
	// operation runs under a context that survives drain, bounded by the
	// client's own timeouts.
	opCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		index := r.dispatched.Add(1) - 1
		if limit := r.cfg.Requests; limit > 0 && index >= limit {
			return
		}
		key := gen.Key(index)

		if _, err := pacer.Acquire(ctx); err != nil {
			return
		}

		opStart := time.Now()
		tx, rx, err := r.strategy.Run(opCtx, c, key)
		latency := time.Since(opStart)
		if err != nil {
			r.log.Debug("worker", "request %s failed: %v", key, err)
		}
		rec.Record(err == nil, latency, tx, rx)
	}
}

// report prints one status line per reporting period: instantaneous
// throughput, overall throughput and average latency so far. It only reads
// snapshots; workers never block on it.
func (r *Runner) report(rec *Recorder, pacer Pacer, start time.Time, done <-chan struct{}) {
	w := tabwriter.NewWriter(r.reportOut, 16, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "current ops/sec\tq50 lat(ms)\toverall ops/sec\tavg lat(ms)\ttotal ops\terrors\t\n")
	w.Flush()

	ticker := time.NewTicker(r.cfg.ReportingPeriod)
	defer ticker.Stop()
	prev := start
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			window := rec.Interval()
			s := rec.Snapshot()
			took := now.Sub(prev)
			currentRate := float64(window.Ops) / took.Seconds()
			overallRate := float64(s.Ops) / now.Sub(start).Seconds()

			line := fmt.Sprintf("%.0f\t%.3f\t%.0f\t%.3f\t%d\t%d\t",
				currentRate, durationMs(window.P50), overallRate, durationMs(s.Avg), s.Ops, s.Errors)
			if target := pacer.Target(); target > 0 {
				line += fmt.Sprintf("  target %.0f qps", target)
			}
			fmt.Fprintln(w, line)
			w.Flush()
			prev = now
		}
	}
}
