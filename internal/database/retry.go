package database

import (
	"context"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// WithRetry runs a database call, retrying transient failures a few times.
func WithRetry(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(time.Second),
		retry.Context(ctx),
	)
}
