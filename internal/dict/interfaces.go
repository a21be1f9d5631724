package dict

import (
	"context"
	"io"
	"time"
)

// Fetched is the result of one successful lookup: the parsed entry plus
// the raw page it came from, kept for snapshotting.
type Fetched struct {
	Entry      *Entry
	HTML       []byte
	StatusCode int
	// Attempts counts fetch calls it took to produce this result.
	// Decorators that retry set it; plain fetchers leave it zero.
	Attempts int
}

// Fetcher resolves one word into a dictionary entry. Implementations
// return ErrNotFound when the service has no entry, or a TransientError
// for failures worth retrying.
type Fetcher interface {
	Fetch(ctx context.Context, word string) (Fetched, error)
}

// ResultSink persists per-word outcomes as they complete. Append must be
// safe for concurrent use; order of entries is completion order.
type ResultSink interface {
	Init() error
	Append(word string, entry *Entry) error
	Close() error
}

// BlobStore writes raw artifacts (HTML snapshots) and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes per-word completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// OutcomeLedger records outcomes durably and answers resume queries.
type OutcomeLedger interface {
	Record(ctx context.Context, runID string, outcome Outcome) error
	Fetched(ctx context.Context, word string) (bool, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
