// Package progress defines the event stream emitted by the batch workers.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart  Stage = "RUN_START"
	StageRunDone   Stage = "RUN_DONE"
	StageWordStart Stage = "WORD_START"
	StageWordDone  Stage = "WORD_DONE"
)

// Result classifies the outcome of one word lookup.
type Result string

// Supported per-word results.
const (
	ResultFound    Result = "found"
	ResultNotFound Result = "not_found"
	ResultSkipped  Result = "skipped"
	ResultDropped  Result = "dropped"
)

// Event captures a single milestone of batch progress.
type Event struct {
	// RunID identifies a batch run.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Word scopes word events to one lookup.
	Word string
	// Result classifies WORD_DONE events.
	Result Result
	// Attempts counts fetch attempts for the word, retries included.
	Attempts int
	// Bytes carries the raw page size for found words.
	Bytes int64
	// Dur captures lookup latency for words and wall time for runs.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageWordStart:
		if e.Word == "" {
			return errors.New("word start requires a word")
		}
	case StageWordDone:
		if e.Word == "" {
			return errors.New("word done requires a word")
		}
		if e.Result == "" {
			return errors.New("word done requires a result")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
