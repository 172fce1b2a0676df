package content

import (
	"context"
	"time"
)

// RetryPolicy bounds provider calls. MaxRetries is the total number of calls
// made before falling back, so the default of 3 means a first call and two
// retries, and a third consecutive failure goes straight to fallback content.
// Values below 1 still make one call.
type RetryPolicy struct {
	MaxRetries int
	Backoff    func(attempt int) time.Duration
}

func FixedDelay(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Backoff: FixedDelay(time.Second)}
}

func (p RetryPolicy) attempts() int {
	if p.MaxRetries < 1 {
		return 1
	}
	return p.MaxRetries
}

// wait blocks for the backoff before the given retry, or until ctx is done.
func (p RetryPolicy) wait(ctx context.Context, attempt int) error {
	if p.Backoff == nil {
		return ctx.Err()
	}
	d := p.Backoff(attempt)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
