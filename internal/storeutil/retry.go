package storeutil

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	maxRetries      = 3
	initialInterval = 100 * time.Millisecond
	maxInterval     = 2 * time.Second
)

// Retry runs op with bounded exponential backoff. Transient store failures
// are retried up to maxRetries times; context cancellation stops the loop.
// Callers must validate inputs before entering Retry so that validation
// errors are never retried.
func Retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialInterval
	b.MaxInterval = maxInterval
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
}

// Permanent marks an error as non-retryable inside Retry.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
