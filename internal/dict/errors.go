package dict

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that the service answered but carries no entry
// for the requested word. It is terminal: callers must not retry.
var ErrNotFound = errors.New("definition not found")

// TransientError marks a failure worth retrying (network error, timeout,
// unexpected page shape).
type TransientError struct {
	Word string
	Err  error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Word, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError for word.
func Transient(word string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Word: word, Err: err}
}

// IsTerminal reports whether err must not be retried.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrNotFound)
}
