package poll

import (
	"context"
	"time"
)

// Until calls probe every interval until it reports found, the timeout
// elapses, or ctx is cancelled. The probe always runs at least once.
func Until[T any](ctx context.Context, timeout, interval time.Duration, probe func(context.Context) (T, bool)) (T, bool) {
	var zero T
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if v, ok := probe(ctx); ok {
			return v, true
		}
		if !time.Now().Before(deadline) {
			return zero, false
		}

		select {
		case <-ctx.Done():
			return zero, false
		case <-ticker.C:
		}
	}
}

// Sleep pauses for d or until ctx is cancelled, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
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
