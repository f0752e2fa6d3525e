package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dom/noteshare/internal/domain"
)

const maxReadRetries = 3

func newReadBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return b
}

// retryRead retries an idempotent read on upstream failures. Domain errors
// and cancellation stop immediately.
func retryRead[T any](ctx context.Context, op func() (T, error)) (T, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(newReadBackOff(), maxReadRetries), ctx)

	v, err := backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, b)
	return v, upstream(err)
}

func retryable(err error) bool {
	return !isDomainError(err) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrAuthentication) ||
		errors.Is(err, domain.ErrUpstreamStorage)
}

// upstream tags storage failures that are not part of the domain taxonomy.
func upstream(err error) error {
	if err == nil || !retryable(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstreamStorage, err)
}
