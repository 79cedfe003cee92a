package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultInitInitialInterval = 500 * time.Millisecond
	defaultInitMultiplier      = 2.0
	defaultInitMaxInterval     = 5 * time.Second
	defaultInitRandomization   = 0.5
	defaultInitMaxElapsed      = 20 * time.Second
)

// Fast is the policy for short transient failures on request paths.
var Fast = Policy{Attempts: 3, Delay: 200 * time.Millisecond}

// PermanentError wraps a non-retryable error.
type PermanentError struct {
	err error
}

func (e PermanentError) Error() string {
	if e.err == nil {
		return "permanent error"
	}
	return e.err.Error()
}

func (e PermanentError) Unwrap() error { return e.err }

// Permanent marks an error as non-retryable.
func Permanent(err error) error {
	if err == nil || IsPermanent(err) {
		return err
	}
	return PermanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe PermanentError
	if errors.As(err, &pe) {
		return true
	}
	var bpe *backoff.PermanentError
	return errors.As(err, &bpe)
}

// Policy retries a fixed number of times with a constant delay.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn until it succeeds, returns a permanent error, or the attempts
// run out. No delay follows the last attempt.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(); err == nil || IsPermanent(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return err
}

func RetryFast(ctx context.Context, fn func() error) error {
	return Fast.Do(ctx, fn)
}

// RetryInit retries fn with exponential backoff for startup flows such as
// waiting for Postgres, Redis or Kafka to accept connections.
func RetryInit(ctx context.Context, fn func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = defaultInitInitialInterval
	exp.Multiplier = defaultInitMultiplier
	exp.MaxInterval = defaultInitMaxInterval
	exp.RandomizationFactor = defaultInitRandomization
	exp.Reset()

	op := func() (struct{}, error) {
		if err := ctx.Err(); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		err := fn()
		var bpe *backoff.PermanentError
		if IsPermanent(err) && !errors.As(err, &bpe) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(exp),
		backoff.WithMaxElapsedTime(defaultInitMaxElapsed),
	)
	return err
}
