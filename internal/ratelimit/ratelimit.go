// Package ratelimit spaces out consecutive page loads of one run.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Limiter interface {
	Wait(ctx context.Context) error
}

// Delay enforces a pause between actions, drawn from [min, max). The first
// call never waits.
type Delay struct {
	mu         sync.Mutex
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	rand       *rand.Rand
}

func NewDelay(minDelay, maxDelay time.Duration) *Delay {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Delay{
		minDelay: minDelay,
		maxDelay: maxDelay,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (d *Delay) Wait(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.lastAction.IsZero() {
		if wait := d.next() - time.Since(d.lastAction); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	d.lastAction = time.Now()
	return nil
}

func (d *Delay) next() time.Duration {
	if d.maxDelay <= d.minDelay {
		return d.minDelay
	}
	return d.minDelay + time.Duration(d.rand.Int63n(int64(d.maxDelay-d.minDelay)))
}

// Noop never waits.
type Noop struct{}

func (Noop) Wait(ctx context.Context) error {
	return ctx.Err()
}
