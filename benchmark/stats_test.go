package benchmark

import (
	"testing"
	"time"
)

func TestRecorderCountsSuccessesAndFailures(t *testing.T) {
	rec := NewRecorder()
	for i := 0; i < 3; i++ {
		rec.Record(true, time.Millisecond, 10, 5)
	}
	rec.Record(false, time.Millisecond, 0, 0)
	rec.Record(false, time.Millisecond, 0, 0)

	s := rec.Snapshot()
	if s.Ops != 5 {
		t.Errorf("expected 5 ops, got %d", s.Ops)
	}
	if s.Errors != 2 {
		t.Errorf("expected 2 errors, got %d", s.Errors)
	}
	if s.TxBytes != 30 || s.RxBytes != 15 {
		t.Errorf("expected tx=30 rx=15, got tx=%d rx=%d", s.TxBytes, s.RxBytes)
	}
}

func TestPercentileOrdering(t *testing.T) {
	rec := NewRecorder()
	for i := 1; i <= 1000; i++ {
		rec.Record(true, time.Duration(i)*time.Millisecond, 0, 0)
	}

	s := rec.Snapshot()
	if s.P50 > s.P95 || s.P95 > s.P99 || s.P99 > s.Max {
		t.Errorf("percentile ordering violated: p50=%v p95=%v p99=%v max=%v", s.P50, s.P95, s.P99, s.Max)
	}
	if s.Min > s.Avg || s.Avg > s.Max {
		t.Errorf("min/avg/max ordering violated: min=%v avg=%v max=%v", s.Min, s.Avg, s.Max)
	}
	if s.Min <= 0 {
		t.Errorf("expected positive min latency, got %v", s.Min)
	}
}

func TestFailedRequestsExcludedFromLatency(t *testing.T) {
	rec := NewRecorder()
	rec.Record(true, time.Millisecond, 0, 0)
	rec.Record(false, time.Minute, 0, 0)

	s := rec.Snapshot()
	if s.Max > 10*time.Millisecond {
		t.Errorf("failed request latency leaked into percentiles: max=%v", s.Max)
	}
}

func TestSnapshotIdempotent(t *testing.T) {
	rec := NewRecorder()
	for i := 0; i < 100; i++ {
		rec.Record(true, time.Duration(i+1)*time.Millisecond, 1, 1)
	}

	a := rec.Snapshot()
	b := rec.Snapshot()
	if a != b {
		t.Errorf("snapshots differ with no intervening records:\n%+v\n%+v", a, b)
	}
}

func TestIntervalDrainsWindow(t *testing.T) {
	rec := NewRecorder()
	for i := 0; i < 10; i++ {
		rec.Record(true, time.Millisecond, 0, 0)
	}

	w := rec.Interval()
	if w.Ops != 10 {
		t.Errorf("expected 10 ops in window, got %d", w.Ops)
	}
	if w2 := rec.Interval(); w2.Ops != 0 {
		t.Errorf("expected drained window, got %d ops", w2.Ops)
	}

	// Draining the window must not touch the cumulative aggregate.
	if s := rec.Snapshot(); s.Ops != 10 {
		t.Errorf("cumulative ops changed after interval drain: %d", s.Ops)
	}
}

func TestResultThroughput(t *testing.T) {
	rec := NewRecorder()
	for i := 0; i < 100; i++ {
		rec.Record(true, time.Millisecond, 0, 0)
	}
	rec.Record(false, time.Millisecond, 0, 0)

	start := time.Now()
	res := rec.Result(start, start.Add(2*time.Second))
	if res.TotalRequests != 101 {
		t.Errorf("expected 101 total requests, got %d", res.TotalRequests)
	}
	if res.Errors != 1 {
		t.Errorf("expected 1 error, got %d", res.Errors)
	}
	// Throughput counts completed requests only: 100 over 2 seconds.
	if res.Throughput < 49.9 || res.Throughput > 50.1 {
		t.Errorf("expected throughput ~50, got %f", res.Throughput)
	}
	if res.DurationMillis != 2000 {
		t.Errorf("expected 2000ms duration, got %d", res.DurationMillis)
	}
}

func TestEmptyRecorder(t *testing.T) {
	rec := NewRecorder()
	s := rec.Snapshot()
	if s.Ops != 0 || s.Min != 0 || s.P99 != 0 {
		t.Errorf("expected zero snapshot, got %+v", s)
	}
}
