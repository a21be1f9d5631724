// Package retry wraps a dict.Fetcher with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dictbatch/internal/dict"
)

// Policy controls retry behavior for transient fetch failures.
type Policy struct {
	// MaxAttempts is the total number of calls to the underlying
	// fetcher, the first attempt included.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultPolicy returns the documented defaults: 5 attempts, 1s initial
// delay doubling per attempt, capped at 30s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// ShouldRetry decides whether another attempt is warranted after err.
func (p Policy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.MaxAttempts {
		return false
	}
	if dict.IsTerminal(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Backoff returns the wait duration before attempt+1. Attempts are
// counted from 1, so the first wait equals InitialDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.InitialDelay << (attempt - 1)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// ExhaustedError reports that all attempts for a word failed with
// transient errors. It unwraps to dict.ErrNotFound so callers treat the
// word like any other absent entry.
type ExhaustedError struct {
	Word     string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("word %q: %d attempts exhausted, last error: %v", e.Word, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return dict.ErrNotFound
}

// Fetcher decorates a dict.Fetcher with the retry policy. Backoff
// sleeps suspend only the calling goroutine and honor ctx cancellation.
type Fetcher struct {
	inner  dict.Fetcher
	policy Policy
	logger *zap.Logger
}

// New builds a retrying Fetcher.
func New(inner dict.Fetcher, policy Policy, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy()
	}
	return &Fetcher{inner: inner, policy: policy, logger: logger}
}

// Fetch resolves word, retrying transient failures. Terminal not-found
// answers return immediately; exhausted retries surface as an
// ExhaustedError wrapping dict.ErrNotFound.
func (f *Fetcher) Fetch(ctx context.Context, word string) (dict.Fetched, error) {
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		attempts = attempt
		fetched, err := f.inner.Fetch(ctx, word)
		if err == nil {
			fetched.Attempts = attempt
			return fetched, nil
		}
		if dict.IsTerminal(err) {
			return dict.Fetched{}, err
		}
		lastErr = err

		if !f.policy.ShouldRetry(err, attempt) {
			break
		}
		wait := f.policy.Backoff(attempt)
		f.logger.Warn("transient fetch failure, backing off",
			zap.String("word", word),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if err := sleep(ctx, wait); err != nil {
			return dict.Fetched{}, err
		}
	}

	exhausted := &ExhaustedError{Word: word, Attempts: attempts, Last: lastErr}
	f.logger.Error("fetch retries exhausted", zap.String("word", word), zap.Error(lastErr))
	return dict.Fetched{}, exhausted
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
