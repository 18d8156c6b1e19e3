package benchmark

import (
	"sync"
	"sync/atomic"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram range: 1us to 10min at 3 significant figures. Memory is bounded
// regardless of run length; quantile values are accurate to within 0.1%.
const (
	histMin     = int64(1)
	histMax     = int64(10 * time.Minute / time.Microsecond)
	histSigFigs = 3
)

// Recorder accumulates per-request latency samples from all workers. Counts
// are atomics; the histograms sit behind a mutex whose hold time is a single
// RecordValue call. Failed requests are counted but their latency is not
// folded into the percentiles: the report covers completed requests only,
// with the error count alongside.
type Recorder struct {
	ops     atomic.Uint64
	errors  atomic.Uint64
	txBytes atomic.Uint64
	rxBytes atomic.Uint64

	mu   sync.Mutex
	hist *hdrhistogram.Histogram
	// instHist covers only the current reporting window and is reset each
	// time the reporting task drains it.
	instHist *hdrhistogram.Histogram
}

func NewRecorder() *Recorder {
	return &Recorder{
		hist:     hdrhistogram.New(histMin, histMax, histSigFigs),
		instHist: hdrhistogram.New(histMin, histMax, histSigFigs),
	}
}

// Record appends one observation. Never blocks a worker beyond the histogram
// lock.
func (r *Recorder) Record(ok bool, latency time.Duration, tx, rx uint64) {
	r.ops.Add(1)
	r.txBytes.Add(tx)
	r.rxBytes.Add(rx)
	if !ok {
		r.errors.Add(1)
		return
	}

	us := latency.Microseconds()
	if us < histMin {
		us = histMin
	}
	r.mu.Lock()
	_ = r.hist.RecordValue(us)
	_ = r.instHist.RecordValue(us)
	r.mu.Unlock()
}

// Snapshot is a consistent aggregate view for reporting. Latency fields are
// zero until at least one request has completed successfully.
type Snapshot struct {
	Ops     uint64
	Errors  uint64
	TxBytes uint64
	RxBytes uint64

	Min time.Duration
	Max time.Duration
	Avg time.Duration
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// Snapshot returns the aggregate so far. Calling it twice with no
// intervening Record yields identical numbers.
func (r *Recorder) Snapshot() Snapshot {
	s := Snapshot{
		Ops:     r.ops.Load(),
		Errors:  r.errors.Load(),
		TxBytes: r.txBytes.Load(),
		RxBytes: r.rxBytes.Load(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hist.TotalCount() == 0 {
		return s
	}
	s.Min = time.Duration(r.hist.Min()) * time.Microsecond
	s.Max = time.Duration(r.hist.Max()) * time.Microsecond
	s.Avg = time.Duration(r.hist.Mean()) * time.Microsecond
	s.P50 = time.Duration(r.hist.ValueAtQuantile(50.0)) * time.Microsecond
	s.P95 = time.Duration(r.hist.ValueAtQuantile(95.0)) * time.Microsecond
	s.P99 = time.Duration(r.hist.ValueAtQuantile(99.0)) * time.Microsecond
	return s
}

// IntervalSnapshot summarizes the completed requests of one reporting
// window.
type IntervalSnapshot struct {
	Ops uint64
	P50 time.Duration
}

// Interval drains the current reporting window. Only the reporting task
// calls this.
func (r *Recorder) Interval() IntervalSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := IntervalSnapshot{
		Ops: uint64(r.instHist.TotalCount()),
		P50: time.Duration(r.instHist.ValueAtQuantile(50.0)) * time.Microsecond,
	}
	r.instHist.Reset()
	return s
}

// RunResult is the final immutable summary of one run, produced exactly once
// at coordinator shutdown.
type RunResult struct {
	StartTime      int64   `json:"StartTime"` // milliseconds since epoch
	EndTime        int64   `json:"EndTime"`
	DurationMillis int64   `json:"DurationMillis"`
	TotalRequests  uint64  `json:"TotalRequests"`
	Errors         uint64  `json:"Errors"`
	Throughput     float64 `json:"Throughput"` // completed requests per second
	TxBytes        uint64  `json:"TxBytes"`
	RxBytes        uint64  `json:"RxBytes"`

	MinLatencyMs float64 `json:"MinLatencyMs"`
	AvgLatencyMs float64 `json:"AvgLatencyMs"`
	MaxLatencyMs float64 `json:"MaxLatencyMs"`
	P50LatencyMs float64 `json:"P50LatencyMs"`
	P95LatencyMs float64 `json:"P95LatencyMs"`
	P99LatencyMs float64 `json:"P99LatencyMs"`
}

// Result derives the final summary from the recorded aggregate and the run's
// wall-clock bounds.
func (r *Recorder) Result(start, end time.Time) RunResult {
	s := r.Snapshot()
	took := end.Sub(start)

	res := RunResult{
		StartTime:      start.UnixMilli(),
		EndTime:        end.UnixMilli(),
		DurationMillis: took.Milliseconds(),
		TotalRequests:  s.Ops,
		Errors:         s.Errors,
		TxBytes:        s.TxBytes,
		RxBytes:        s.RxBytes,
		MinLatencyMs:   durationMs(s.Min),
		AvgLatencyMs:   durationMs(s.Avg),
		MaxLatencyMs:   durationMs(s.Max),
		P50LatencyMs:   durationMs(s.P50),
		P95LatencyMs:   durationMs(s.P95),
		P99LatencyMs:   durationMs(s.P99),
	}
	if took > 0 {
		res.Throughput = float64(s.Ops-s.Errors) / took.Seconds()
	}
	return res
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1e3
}
