package benchmark

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer gates request dispatch. Acquire blocks the calling worker until the
// next request is permitted and returns the dispatch instant. It is safe for
// simultaneous use by all workers; the enforced rate is global, not
// per-worker.
type Pacer interface {
	Acquire(ctx context.Context) (time.Time, error)
	// Target reports the current target QPS; 0 means unlimited.
	Target() float64
}

// NewPacer selects the pacing mode from cfg: ramped when StartQPS is set,
// fixed when QPS is set, unlimited otherwise.
func NewPacer(cfg *Config) Pacer {
	if cfg.StartQPS > 0 {
		return newRampPacer(cfg.StartQPS, cfg.EndQPS, cfg.QPSChange, cfg.QPSChangeInterval)
	}
	if cfg.QPS > 0 {
		return newFixedPacer(float64(cfg.QPS))
	}
	return unlimitedPacer{}
}

type unlimitedPacer struct{}

func (unlimitedPacer) Acquire(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return time.Now(), nil
}

func (unlimitedPacer) Target() float64 { return 0 }

// fixedPacer enforces a global rate with a shared token bucket. Burst is 1,
// so a worker that falls behind dispatches immediately but at most one
// interval of credit can ever accumulate: pacing is drift-corrected rather
// than debt-accumulating.
type fixedPacer struct {
	limiter *rate.Limiter
}

func newFixedPacer(qps float64) *fixedPacer {
	return &fixedPacer{limiter: rate.NewLimiter(rate.Limit(qps), 1)}
}

func (p *fixedPacer) Acquire(ctx context.Context) (time.Time, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return time.Time{}, err
	}
	return time.Now(), nil
}

func (p *fixedPacer) Target() float64 {
	return float64(p.limiter.Limit())
}

// rampPacer steps the target rate from start toward end by step every
// interval, then keeps the fixed-pacing rule at the updated target. The
// limiter is shared, so a step takes effect for all workers at once.
type rampPacer struct {
	limiter *rate.Limiter

	mu       sync.Mutex
	current  float64
	end      float64
	step     float64
	interval time.Duration
	nextStep time.Time
}

func newRampPacer(startQPS, endQPS, change int, interval time.Duration) *rampPacer {
	start := float64(startQPS)
	return &rampPacer{
		limiter:  rate.NewLimiter(rate.Limit(start), 1),
		current:  start,
		end:      float64(endQPS),
		step:     float64(change),
		interval: interval,
		nextStep: time.Now().Add(interval),
	}
}

func (p *rampPacer) Acquire(ctx context.Context) (time.Time, error) {
	p.advance(time.Now())
	if err := p.limiter.Wait(ctx); err != nil {
		return time.Time{}, err
	}
	return time.Now(), nil
}

func (p *rampPacer) Target() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// advance applies every ramp step whose interval boundary has passed. The
// critical section only updates the target; the blocking wait happens in the
// limiter, outside the lock.
func (p *rampPacer) advance(now time.Time) {
	p.mu.Lock()
	updated := false
	for p.current != p.end && !now.Before(p.nextStep) {
		p.current += p.step
		if (p.step > 0 && p.current > p.end) || (p.step < 0 && p.current < p.end) {
			p.current = p.end
		}
		p.nextStep = p.nextStep.Add(p.interval)
		updated = true
	}
	target := p.current
	p.mu.Unlock()

	if updated {
		p.limiter.SetLimit(rate.Limit(target))
	}
}
