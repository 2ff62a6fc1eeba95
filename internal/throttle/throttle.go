// Package throttle enforces a minimum spacing between consecutive requests.
//
// The spacing is measured from the moment the previous request *completed* to the moment
// the next one starts, so a slow response never shortens the gap the remote sees.
package throttle

import (
	"context"
	"paperscrape/internal/components/assert"
	"paperscrape/internal/components/chrono"
	"time"
)

// Delay returns how long a caller must wait at `now` before issuing a request, given the
// completion time of the previous request. A zero `last` means no request was made yet.
func Delay(last, now time.Time, interval time.Duration) time.Duration {
	if last.IsZero() || interval <= 0 {
		return 0
	}
	elapsed := now.Sub(last)
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

// Throttle holds the time of the last completed request. It is not safe for concurrent use,
// it belongs to exactly one sequential caller.
type Throttle struct {
	interval time.Duration
	clock    chrono.API
	last     time.Time
}

func New(interval time.Duration, clock chrono.API) *Throttle {
	assert.NotNil(clock)
	return &Throttle{interval: interval, clock: clock}
}

// Last returns the completion time of the last recorded request.
func (t *Throttle) Last() time.Time {
	return t.last
}

// Wait blocks until a new request may be issued.
func (t *Throttle) Wait(ctx context.Context) error {
	delay := Delay(t.last, t.clock.Now(), t.interval)
	if delay <= 0 {
		return ctx.Err()
	}
	return t.clock.Sleep(ctx, delay)
}

// Done records that a request completed now, it becomes the baseline for the next Wait.
func (t *Throttle) Done() {
	t.last = t.clock.Now()
}
