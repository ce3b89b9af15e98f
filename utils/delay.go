package utils

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"gmb-scraper/config"
)

// Clock is the time source for every pause and poll in a run.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer sleeps for random durations drawn from configured ranges.
//
// WHY RANDOM? Fixed delays are detectable patterns.
// Random delays look more like a human browsing.
type Pacer struct {
	clock Clock
	mu    sync.Mutex
	rng   *rand.Rand
}

func NewPacer(clock Clock, seed int64) *Pacer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Pacer{clock: clock, rng: rand.New(rand.NewSource(seed))}
}

func (p *Pacer) Clock() Clock {
	return p.clock
}

// Sample returns a duration uniformly distributed in [r.Min, r.Max].
func (p *Pacer) Sample(r config.DelayRange) time.Duration {
	diff := r.Max - r.Min
	if diff <= 0 {
		return r.Min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.Min + time.Duration(p.rng.Int63n(int64(diff)+1))
}

// Pause sleeps for a sampled duration in r.
func (p *Pacer) Pause(ctx context.Context, r config.DelayRange) error {
	return p.clock.Sleep(ctx, p.Sample(r))
}

// Pick returns a random element of items, or "" when items is empty.
func (p *Pacer) Pick(items []string) string {
	if len(items) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return items[p.rng.Intn(len(items))]
}
