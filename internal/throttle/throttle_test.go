package throttle

import (
	"context"
	"paperscrape/internal/components/chrono"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDelay(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		last     time.Time
		now      time.Time
		interval time.Duration
		expected time.Duration
	}{
		{name: "first request", last: time.Time{}, now: base, interval: 10 * time.Second, expected: 0},
		{name: "immediately after", last: base, now: base, interval: 10 * time.Second, expected: 10 * time.Second},
		{name: "partially elapsed", last: base, now: base.Add(3 * time.Second), interval: 10 * time.Second, expected: 7 * time.Second},
		{name: "exactly elapsed", last: base, now: base.Add(10 * time.Second), interval: 10 * time.Second, expected: 0},
		{name: "long ago", last: base, now: base.Add(time.Hour), interval: 10 * time.Second, expected: 0},
		{name: "no interval", last: base, now: base, interval: 0, expected: 0},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, Delay(test.last, test.now, test.interval))
		})
	}
}

func TestThrottleWait(t *testing.T) {
	clock := chrono.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	th := New(10*time.Second, clock)
	ctx := context.Background()

	// nothing to wait for before the first request
	require.NoError(t, th.Wait(ctx))
	require.Empty(t, clock.Sleeps())

	th.Done()
	clock.Advance(4 * time.Second)
	require.NoError(t, th.Wait(ctx))
	require.Equal(t, []time.Duration{6 * time.Second}, clock.Sleeps())

	// waiting does not move the baseline, only Done does
	require.NoError(t, th.Wait(ctx))
	require.Equal(t, []time.Duration{6 * time.Second}, clock.Sleeps())

	th.Done()
	require.Equal(t, clock.Now(), th.Last())
	require.NoError(t, th.Wait(ctx))
	require.Equal(t, []time.Duration{6 * time.Second, 10 * time.Second}, clock.Sleeps())
}

func TestThrottleSequenceSpacing(t *testing.T) {
	clock := chrono.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	interval := 10 * time.Second
	th := New(interval, clock)
	ctx := context.Background()

	var starts []time.Time
	for i := 0; i < 5; i++ {
		require.NoError(t, th.Wait(ctx))
		starts = append(starts, clock.Now())
		// the request itself takes a varying amount of time
		clock.Advance(time.Duration(i) * time.Second)
		th.Done()
	}

	for i := 1; i < len(starts); i++ {
		require.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), interval)
	}
}

func TestThrottleWaitCancelled(t *testing.T) {
	th := New(time.Hour, chrono.NewStandardImpl())
	th.Done()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, th.Wait(ctx), context.Canceled)
}
