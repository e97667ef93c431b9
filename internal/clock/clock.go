package clock

import (
	"context"
	"time"
)

// DefaultInterval is used when Source.Interval is not positive.
const DefaultInterval = time.Second

// Source emits the current time immediately and then periodically.
type Source struct {
	// Interval between ticks.
	Interval time.Duration
	// Now supplies the time; nil uses time.Now.
	Now func() time.Time
}

// Run calls fn with the current time once right away and then on every tick
// until ctx is canceled. Calls never overlap; a slow fn delays later ticks
// instead of queuing them.
func (s Source) Run(ctx context.Context, fn func(context.Context, time.Time)) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}

	if ctx.Err() != nil {
		return
	}

	fn(ctx, now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx, now())
		}
	}
}
