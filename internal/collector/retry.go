package collector

import (
	"context"
	"time"
)

const baseRetryDelay = 200 * time.Millisecond

// withRetry runs fn up to attempts times with exponential backoff,
// stopping early when the context is done. The last attempt's error is
// returned.
func withRetry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	delay := baseRetryDelay
	var err error
	for i := 0; i < attempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return err
}
