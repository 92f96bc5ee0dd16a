package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out document fetches. The first Wait returns immediately and
// each later Wait blocks until the interval since the previous one elapsed.
type Pacer struct {
	mu       sync.Mutex
	interval time.Duration
	limiter  *rate.Limiter
}

// NewPacer returns a pacer with the given inter-document delay. A
// non-positive delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	p := &Pacer{}
	p.set(delay)
	return p
}

func (p *Pacer) set(delay time.Duration) {
	p.interval = delay
	if delay <= 0 {
		p.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	p.limiter = rate.NewLimiter(rate.Every(delay), 1)
}

// Wait blocks until the next document may be fetched or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	l := p.limiter
	p.mu.Unlock()
	return l.Wait(ctx)
}

// Slow raises the interval to d when d is longer than the current one, as
// when robots.txt asks for a larger crawl delay. It never shortens it.
func (p *Pacer) Slow(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d <= p.interval {
		return
	}
	p.interval = d
	p.limiter.SetLimit(rate.Every(d))
}

// Interval reports the current spacing.
func (p *Pacer) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}
