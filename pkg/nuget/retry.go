// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"context"
	"errors"
	"time"
)

// Retry runs fn up to attempts times. Only errors wrapped in RetryableError
// are retried; the delay doubles after every failed attempt.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !errors.As(err, new(*RetryableError)) {
			return err
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
	return lastErr
}
