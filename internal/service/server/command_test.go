package server

import (
	"context"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStartClock_StopWaitsForLoop checks that no tick runs once stop returns.
func TestStartClock_StopWaitsForLoop(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var ticks atomic.Int32

		stop := startClock(context.Background(), time.Second, func(context.Context, time.Time) {
			ticks.Add(1)
		})

		// Immediate tick plus the ones at 1s and 2s.
		time.Sleep(2500 * time.Millisecond)

		stop()

		stopped := ticks.Load()
		require.Equal(t, int32(3), stopped)

		time.Sleep(5 * time.Second)
		require.Equal(t, stopped, ticks.Load())
	})
}

// TestStartClock_ParentCancel ends the loop with its parent context.
func TestStartClock_ParentCancel(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		var ticks atomic.Int32

		stop := startClock(ctx, time.Second, func(context.Context, time.Time) {
			ticks.Add(1)
		})

		cancel()
		synctest.Wait()

		stopped := ticks.Load()

		time.Sleep(3 * time.Second)
		require.Equal(t, stopped, ticks.Load())

		// Stop after the parent ended is still safe.
		stop()
	})
}
