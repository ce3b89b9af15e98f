package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry runs fn up to maxAttempts times with exponential backoff between attempts.
// If fn returns nil (success) it stops immediately. Errors wrapped with
// backoff.Permanent stop the loop at once.
//
//	attempt 1 fails → wait ~initial
//	attempt 2 fails → wait ~2×initial
//	attempt 3 fails → wait ~4×initial
func Retry(ctx context.Context, log *Logger, what string, maxAttempts int, initial time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxAttempts-1)), ctx)

	attempt := 0
	var lastErr error
	op := func() error {
		attempt++
		lastErr = fn()
		return lastErr
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("%s: attempt %d/%d failed: %v — retrying in %v", what, attempt, maxAttempts, err, wait.Round(time.Millisecond))
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", what, ctxErr)
		}
		var perm *backoff.PermanentError
		if errors.As(lastErr, &perm) {
			return fmt.Errorf("%s: %w", what, perm.Err)
		}
		return fmt.Errorf("%s: all %d attempts failed — last error: %w", what, attempt, lastErr)
	}
	return nil
}
