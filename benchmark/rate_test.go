package benchmark

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewPacerSelection(t *testing.T) {
	if _, ok := NewPacer(&Config{}).(unlimitedPacer); !ok {
		t.Error("expected unlimited pacer without rate settings")
	}
	if _, ok := NewPacer(&Config{QPS: 100}).(*fixedPacer); !ok {
		t.Error("expected fixed pacer with qps set")
	}
	cfg := &Config{StartQPS: 100, EndQPS: 500, QPSChange: 100, QPSChangeInterval: time.Second}
	if _, ok := NewPacer(cfg).(*rampPacer); !ok {
		t.Error("expected ramp pacer with start-qps set")
	}
}

func TestUnlimitedAcquire(t *testing.T) {
	p := unlimitedPacer{}
	start := time.Now()
	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("unlimited acquire blocked for %v", elapsed)
	}
	if p.Target() != 0 {
		t.Errorf("expected target 0, got %f", p.Target())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Acquire(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestFixedPacingHoldsAggregateRate(t *testing.T) {
	// 100 qps with burst 1: 21 acquisitions need ~200ms after the first
	// token.
	p := newFixedPacer(100)
	start := time.Now()
	for i := 0; i < 21; i++ {
		if _, err := p.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	elapsed := time.Since(start)
	if elapsed < 150*time.Millisecond {
		t.Errorf("21 acquisitions at 100 qps finished in %v, rate exceeded", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("21 acquisitions at 100 qps took %v, pacing too slow", elapsed)
	}
}

func TestFixedPacingIsGlobalAcrossWorkers(t *testing.T) {
	// The same total must take the same time regardless of how many
	// goroutines share the pacer.
	p := newFixedPacer(100)
	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				_, _ = p.Acquire(context.Background())
			}
		}()
	}
	wg.Wait()
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("20 shared acquisitions at 100 qps finished in %v, rate is per-worker not global", elapsed)
	}
}

func TestFixedAcquireCancelled(t *testing.T) {
	p := newFixedPacer(1) // 1 qps so the second acquire must wait
	ctx, cancel := context.WithCancel(context.Background())
	_, _ = p.Acquire(ctx)
	cancel()
	if _, err := p.Acquire(ctx); err == nil {
		t.Error("expected error acquiring with cancelled context")
	}
}

func TestRampStepsTowardEnd(t *testing.T) {
	p := newRampPacer(100, 500, 100, time.Second)
	base := time.Now()
	p.nextStep = base.Add(time.Second)

	p.advance(base)
	if got := p.Target(); got != 100 {
		t.Fatalf("expected target 100 before first interval, got %f", got)
	}

	prev := p.Target()
	for i := 1; i <= 6; i++ {
		p.advance(base.Add(time.Duration(i) * time.Second))
		got := p.Target()
		if got < prev {
			t.Fatalf("target stepped down from %f to %f while ramping up", prev, got)
		}
		if got < 100 || got > 500 {
			t.Fatalf("target %f outside [100, 500]", got)
		}
		prev = got
	}
	if prev != 500 {
		t.Errorf("expected target clamped at 500, got %f", prev)
	}

	// Further intervals stay clamped.
	p.advance(base.Add(time.Minute))
	if got := p.Target(); got != 500 {
		t.Errorf("expected target to stay at 500, got %f", got)
	}
}

func TestRampCatchesUpMissedIntervals(t *testing.T) {
	p := newRampPacer(100, 500, 100, time.Second)
	base := time.Now()
	p.nextStep = base.Add(time.Second)

	p.advance(base.Add(3 * time.Second))
	if got := p.Target(); got != 400 {
		t.Errorf("expected 3 steps to reach 400, got %f", got)
	}
}

func TestRampDownClampsAtEnd(t *testing.T) {
	p := newRampPacer(500, 100, -300, time.Second)
	base := time.Now()
	p.nextStep = base.Add(time.Second)

	p.advance(base.Add(time.Second))
	if got := p.Target(); got != 200 {
		t.Fatalf("expected 200 after one step, got %f", got)
	}
	p.advance(base.Add(2 * time.Second))
	if got := p.Target(); got != 100 {
		t.Errorf("expected clamp at 100, got %f", got)
	}
}

func TestRampAppliesTargetToLimiter(t *testing.T) {
	p := newRampPacer(100, 300, 100, time.Second)
	base := time.Now()
	p.nextStep = base.Add(time.Second)

	p.advance(base.Add(time.Second))
	if got := float64(p.limiter.Limit()); got != 200 {
		t.Errorf("expected limiter at 200, got %f", got)
	}
}
