// Package limiter paces and bounds outbound requests.
//
// A Limiter combines two mechanisms: a gate, which caps the number of requests
// in flight and admits waiters in the order they arrived, and a pacer, which
// enforces a minimum delay between the starts of consecutive requests.
package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

func New(delay time.Duration, maxConcurrent int) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Limiter{
		delay: delay,
		max:   int64(maxConcurrent),
		pace:  rate.NewLimiter(limit, 1),
		gate:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

type Limiter struct {
	delay time.Duration
	max   int64

	pace *rate.Limiter
	gate *semaphore.Weighted

	mu       sync.Mutex
	inFlight int64
}

// Acquire blocks until a request may start. The caller must call release when
// the request is finished; calling it more than once is harmless.
//
// If ctx is done before the request is admitted, Acquire returns ctx.Err()
// and holds nothing.
func (lim *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := lim.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := lim.pace.Wait(ctx); err != nil {
		lim.gate.Release(1)
		return nil, err
	}

	lim.mu.Lock()
	lim.inFlight++
	lim.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lim.mu.Lock()
			lim.inFlight--
			lim.mu.Unlock()
			lim.gate.Release(1)
		})
	}, nil
}

// InFlight reports how many requests currently hold a slot.
func (lim *Limiter) InFlight() int {
	lim.mu.Lock()
	defer lim.mu.Unlock()
	return int(lim.inFlight)
}

func (lim *Limiter) Delay() time.Duration { return lim.delay }

func (lim *Limiter) MaxConcurrent() int { return int(lim.max) }
