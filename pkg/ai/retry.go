package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// ErrNoAPIKey is returned when a client has no usable credentials
var ErrNoAPIKey = errors.New("no API key configured")

// StatusError is a non-2xx response from a provider
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether repeating the request may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsQuotaExceeded reports whether err is a provider rate-limit response
func IsQuotaExceeded(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}

// IsUnavailable reports whether err is a provider 5xx response
func IsUnavailable(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= http.StatusInternalServerError
}

// RetryPolicy bounds the exponential backoff around provider calls
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
		MaxElapsed:      2 * time.Minute,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.InitialInterval <= 0 {
		p.InitialInterval = def.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = def.MaxInterval
	}
	if p.MaxElapsed <= 0 {
		p.MaxElapsed = def.MaxElapsed
	}
	return p
}

// retryable: rate limits, server errors and transport failures.
// Any other 4xx is permanent.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrNoAPIKey) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// withRetry runs op with exponential backoff, rotating to the next key after
// every retryable failure
func withRetry(ctx context.Context, policy RetryPolicy, pool *KeyPool, op func(ctx context.Context, key string) error) error {
	if pool.Len() == 0 {
		return ErrNoAPIKey
	}

	policy = policy.withDefaults()
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialInterval
	bo.MaxInterval = policy.MaxInterval
	bo.MaxElapsedTime = policy.MaxElapsed

	key := pool.Next()
	return backoff.Retry(func() error {
		err := op(ctx, key)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		key = pool.Next()
		return err
	}, backoff.WithContext(bo, ctx))
}
