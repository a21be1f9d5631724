package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dictbatch/internal/dict"
)

type scriptedFetcher struct {
	mu       sync.Mutex
	attempts int
	fails    int // transient failures before success; -1 means always fail
	notFound bool
}

func (f *scriptedFetcher) Fetch(_ context.Context, word string) (dict.Fetched, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.notFound {
		return dict.Fetched{}, dict.ErrNotFound
	}
	if f.fails < 0 || f.attempts <= f.fails {
		return dict.Fetched{}, dict.Transient(word, errors.New("connection reset"))
	}
	return dict.Fetched{Entry: &dict.Entry{Headword: word}, StatusCode: 200}, nil
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func fastPolicy(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, InitialDelay: time.Millisecond, MaxDelay: 8 * time.Millisecond}
}

func TestFetcher_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{fails: 2}
	f := New(inner, fastPolicy(5), zap.NewNop())

	fetched, err := f.Fetch(context.Background(), "clear")
	require.NoError(t, err)
	require.Equal(t, "clear", fetched.Entry.Headword)
	require.Equal(t, 3, fetched.Attempts)
	require.Equal(t, 3, inner.count())
}

func TestFetcher_ExhaustsAllAttempts(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{fails: -1}
	f := New(inner, fastPolicy(5), zap.NewNop())

	fetched, err := f.Fetch(context.Background(), "clear")
	require.Nil(t, fetched.Entry)
	require.ErrorIs(t, err, dict.ErrNotFound)
	require.Equal(t, 5, inner.count())

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 5, exhausted.Attempts)
	require.Equal(t, "clear", exhausted.Word)
}

func TestFetcher_NotFoundIsTerminal(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{notFound: true}
	f := New(inner, fastPolicy(5), zap.NewNop())

	fetched, err := f.Fetch(context.Background(), "zzzzzz")
	require.Nil(t, fetched.Entry)
	require.ErrorIs(t, err, dict.ErrNotFound)
	require.Equal(t, 1, inner.count())

	var exhausted *ExhaustedError
	require.False(t, errors.As(err, &exhausted))
}

func TestFetcher_ContextCancelDuringBackoff(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{fails: -1}
	f := New(inner, Policy{MaxAttempts: 5, InitialDelay: time.Minute}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := f.Fetch(ctx, "clear")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, inner.count())
}

func TestPolicy_Backoff(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 30 * time.Second}
	require.Equal(t, time.Second, p.Backoff(1))
	require.Equal(t, 2*time.Second, p.Backoff(2))
	require.Equal(t, 4*time.Second, p.Backoff(3))
	require.Equal(t, 16*time.Second, p.Backoff(5))
	require.Equal(t, 30*time.Second, p.Backoff(7)) // capped
}

func TestPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	p := fastPolicy(3)
	transient := dict.Transient("clear", errors.New("timeout"))

	require.True(t, p.ShouldRetry(transient, 1))
	require.True(t, p.ShouldRetry(transient, 2))
	require.False(t, p.ShouldRetry(transient, 3)) // attempts exhausted
	require.False(t, p.ShouldRetry(nil, 1))
	require.False(t, p.ShouldRetry(dict.ErrNotFound, 1))
	require.False(t, p.ShouldRetry(context.Canceled, 1))
}
