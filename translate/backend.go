package translate

import (
	"context"
	"errors"
	"time"
)

// transientError marks a backend failure worth retrying: transport errors
// and any non-2xx response. Malformed response bodies are permanent.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// isTransient reports whether an error should trigger another attempt.
func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// retryPolicy is the exponential backoff schedule for backend calls.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func defaultRetryPolicy(maxAttempts int) retryPolicy {
	return retryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   time.Second,
		maxDelay:    10 * time.Second,
	}
}

// delay returns the backoff before the given retry attempt (attempt 1 is
// the first retry).
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.baseDelay << (attempt - 1)
	if d > p.maxDelay || d <= 0 {
		d = p.maxDelay
	}
	return d
}

// callBackend runs one prompt against the provider with retries. Transient
// failures are retried with exponential backoff; the last error comes back
// after the attempts are exhausted. The caller decides what degradation
// means.
func callBackend(ctx context.Context, provider Provider, prompt string, params sampling, maxRetries int, opts *Options) (string, error) {
	policy := defaultRetryPolicy(maxRetries)

	var lastErr error
	for attempt := 0; attempt < policy.maxAttempts; attempt++ {
		if attempt > 0 {
			wait := policy.delay(attempt)
			if opts.Verbose {
				opts.log("retrying backend call in %s (attempt %d/%d)", wait, attempt+1, policy.maxAttempts)
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		text, err := provider.generate(ctx, prompt, params)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isTransient(err) {
			break
		}
	}

	return "", lastErr
}
