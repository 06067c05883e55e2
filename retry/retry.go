// Package retry provides fixed-delay retry logic for transient database
// busy/locked failures.
//
// The intended call site is pool-level connection or transaction acquisition:
// engines with coarse database-level locks reject the acquisition outright,
// and a short bounded wait-and-retry recovers. Statement-level races inside a
// transaction are not retried here; the caller's transaction owns those.
package retry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultMaxRetries = 10
	DefaultDelay      = 1000 * time.Millisecond
)

// Config configures retry behavior.
type Config struct {
	// MaxRetries is the maximum number of retry attempts (default: 10).
	// Set to a negative value for no retries (execute once).
	MaxRetries int

	// Delay is the fixed sleep between attempts (default: 1s).
	Delay time.Duration

	// IsRetryable determines if an error should be retried. Callers
	// normally build this from a dialect's busy/locked classification.
	// If nil, defaults to DefaultIsRetryable.
	IsRetryable func(error) bool
}

// DefaultConfig returns a Config with the standard limits.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  DefaultMaxRetries,
		Delay:       DefaultDelay,
		IsRetryable: DefaultIsRetryable,
	}
}

// Sentinel errors.
var (
	// ErrMaxRetries is returned when all retry attempts are exhausted.
	ErrMaxRetries = errors.New("retry: max retries exceeded")

	// ErrContextCanceled wraps context cancellation errors.
	ErrContextCanceled = errors.New("retry: context canceled")
)

// Process-wide counters, exposed for observability.
var (
	totalRetries   atomic.Int64
	totalSuccesses atomic.Int64
)

// TotalRetries returns the number of retried attempts across the process.
func TotalRetries() int64 { return totalRetries.Load() }

// TotalSuccesses returns the number of operations that eventually succeeded.
func TotalSuccesses() int64 { return totalSuccesses.Load() }

// RetryableFunc is the function type that can be retried.
type RetryableFunc func(ctx context.Context) error

// Do executes fn, retrying when cfg.IsRetryable classifies the failure as
// transient, sleeping cfg.Delay between attempts. Non-retryable errors
// propagate immediately; after the limit is exhausted the last cause is
// surfaced wrapped in a RetryError.
func Do(ctx context.Context, cfg Config, fn RetryableFunc) error {
	cfg = applyDefaults(cfg)

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			if lastErr != nil {
				return &RetryError{Cause: lastErr, Attempts: attempt, Err: ErrContextCanceled}
			}
			return ctx.Err()
		}

		err := fn(ctx)
		if err == nil {
			totalSuccesses.Add(1)
			return nil
		}
		lastErr = err

		if !cfg.IsRetryable(err) {
			return err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxRetries {
			totalRetries.Add(1)
			select {
			case <-ctx.Done():
				return &RetryError{Cause: lastErr, Attempts: attempt + 1, Err: ErrContextCanceled}
			case <-time.After(cfg.Delay):
			}
		}
	}

	return &RetryError{Cause: lastErr, Attempts: cfg.MaxRetries + 1, Err: ErrMaxRetries}
}

// DoWithResult executes fn with retries and returns a result value.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	})
	return result, err
}

// RetryError provides details about a failed retry operation.
type RetryError struct {
	// Cause is the last error returned by the function.
	Cause error

	// Attempts is the number of attempts made.
	Attempts int

	// Err is the sentinel error (ErrMaxRetries or ErrContextCanceled).
	Err error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry failed after %d attempts (%s): %s", e.Attempts, e.Err, e.Cause)
}

func (e *RetryError) Unwrap() error {
	return e.Cause
}

func (e *RetryError) Is(target error) bool {
	return errors.Is(e.Err, target) || errors.Is(e.Cause, target)
}

// applyDefaults fills in zero values with defaults.
func applyDefaults(cfg Config) Config {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.IsRetryable == nil {
		cfg.IsRetryable = DefaultIsRetryable
	}
	return cfg
}

// DefaultIsRetryable honors an explicit Retryable() marker on the error and
// otherwise treats errors as permanent. Database callers should install a
// dialect-based classifier instead.
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable interface{ Retryable() bool }
	if errors.As(err, &retryable) {
		return retryable.Retryable()
	}
	return false
}

// MarkRetryable wraps an error to explicitly indicate it can be retried.
func MarkRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{cause: err}
}

type retryableError struct {
	cause error
}

func (e *retryableError) Error() string {
	return e.cause.Error()
}

func (e *retryableError) Unwrap() error {
	return e.cause
}

func (e *retryableError) Retryable() bool {
	return true
}
