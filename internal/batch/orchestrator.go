// Package batch runs the batch lookup pipeline over a word list.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dictbatch/internal/clock/system"
	"dictbatch/internal/dict"
	"dictbatch/internal/fetch/retry"
	"dictbatch/internal/hash/sha256"
	iduuid "dictbatch/internal/id/uuid"
	"dictbatch/internal/progress"
)

// Config controls Orchestrator behavior.
type Config struct {
	// Concurrency bounds the worker pool size.
	Concurrency int
	// Resume skips words the ledger already recorded as found.
	Resume bool
	// SnapshotPrefix is the blob path prefix for raw page snapshots.
	SnapshotPrefix string
	// SnapshotContentType is set on uploaded snapshots.
	SnapshotContentType string
	// Topic is the completion event destination for the publisher.
	Topic string
}

// Deps wires the pipeline stages. Fetcher and Sink are required; the
// blob store, publisher, ledger, and emitter are optional and skipped
// when nil.
type Deps struct {
	Fetcher   dict.Fetcher
	Sink      dict.ResultSink
	Blobs     dict.BlobStore
	Publisher dict.Publisher
	Ledger    dict.OutcomeLedger
	Emitter   progress.Emitter
	Clock     dict.Clock
	IDs       dict.IDGenerator
	Logger    *zap.Logger
}

// Orchestrator fans a word list over a bounded worker pool. Results are
// appended in completion order; a failing word never aborts the run.
type Orchestrator struct {
	deps Deps
	cfg  Config
}

// New constructs an Orchestrator, filling in default deps.
func New(deps Deps, cfg Config) (*Orchestrator, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("result sink is required")
	}
	if deps.Clock == nil {
		deps.Clock = system.Clock{}
	}
	if deps.IDs == nil {
		deps.IDs = iduuid.Generator{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.SnapshotPrefix == "" {
		cfg.SnapshotPrefix = "pages"
	}
	if cfg.SnapshotContentType == "" {
		cfg.SnapshotContentType = "text/html; charset=utf-8"
	}
	return &Orchestrator{deps: deps, cfg: cfg}, nil
}

// wordDoneMessage is the completion event published per word.
type wordDoneMessage struct {
	RunID       string    `json:"run_id"`
	Word        string    `json:"word"`
	Found       bool      `json:"found"`
	Attempts    int       `json:"attempts"`
	DurationMs  int64     `json:"duration_ms"`
	SnapshotURI string    `json:"snapshot_uri,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Run processes every word and returns the aggregate summary. Only sink
// initialization failure is fatal; everything else degrades per word.
// A canceled context stops feeding workers and Run returns ctx.Err()
// alongside the partial summary.
func (o *Orchestrator) Run(ctx context.Context, words []string) (dict.Summary, error) {
	runID, err := o.deps.IDs.NewID()
	if err != nil {
		return dict.Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	if err := o.deps.Sink.Init(); err != nil {
		return dict.Summary{}, fmt.Errorf("initialize result sink: %w", err)
	}

	start := o.deps.Clock.Now()
	o.emit(progress.Event{RunID: runID, TS: start, Stage: progress.StageRunStart})
	o.deps.Logger.Info("batch run started",
		zap.String("run_id", runID),
		zap.Int("words", len(words)),
		zap.Int("concurrency", o.cfg.Concurrency),
	)

	summary := dict.Summary{RunID: runID, Total: len(words)}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan string)
	)
	for i := 0; i < o.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for word := range jobs {
				result := o.processWord(ctx, runID, word)
				mu.Lock()
				switch result {
				case progress.ResultFound:
					summary.Succeeded++
				case progress.ResultNotFound:
					summary.NotFound++
				case progress.ResultSkipped:
					summary.Skipped++
				case progress.ResultDropped:
					summary.Dropped++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, word := range words {
		select {
		case jobs <- word:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	summary.Elapsed = o.deps.Clock.Now().Sub(start)
	o.emit(progress.Event{
		RunID: runID,
		TS:    o.deps.Clock.Now(),
		Stage: progress.StageRunDone,
		Dur:   summary.Elapsed,
	})
	o.deps.Logger.Info("batch run finished",
		zap.String("run_id", runID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("not_found", summary.NotFound),
		zap.Int("skipped", summary.Skipped),
		zap.Int("dropped", summary.Dropped),
		zap.Duration("elapsed", summary.Elapsed),
	)

	if err := o.deps.Sink.Close(); err != nil {
		o.deps.Logger.Warn("close result sink", zap.Error(err))
	}
	return summary, ctx.Err()
}

func (o *Orchestrator) processWord(ctx context.Context, runID, word string) progress.Result {
	started := o.deps.Clock.Now()
	o.emit(progress.Event{RunID: runID, TS: started, Stage: progress.StageWordStart, Word: word})

	if o.cfg.Resume && o.deps.Ledger != nil {
		done, err := o.deps.Ledger.Fetched(ctx, word)
		switch {
		case err != nil:
			o.deps.Logger.Warn("resume lookup failed, fetching anyway",
				zap.String("word", word), zap.Error(err))
		case done:
			o.emitDone(runID, word, progress.ResultSkipped, 0, 0, 0, "already fetched")
			return progress.ResultSkipped
		}
	}

	fetched, fetchErr := o.deps.Fetcher.Fetch(ctx, word)
	dur := o.deps.Clock.Now().Sub(started)

	if fetchErr != nil && !dict.IsTerminal(fetchErr) {
		o.deps.Logger.Warn("fetch aborted",
			zap.String("word", word), zap.Error(fetchErr))
		o.emitDone(runID, word, progress.ResultDropped, 0, 0, dur, "fetch aborted")
		return progress.ResultDropped
	}

	outcome := dict.Outcome{
		Word:      word,
		Entry:     fetched.Entry,
		Err:       fetchErr,
		Attempts:  attemptsFor(fetched, fetchErr),
		Duration:  dur,
		FetchedAt: o.deps.Clock.Now(),
	}

	if outcome.Found() && o.deps.Blobs != nil && len(fetched.HTML) > 0 {
		path := fmt.Sprintf("%s/%s/%s.html", o.cfg.SnapshotPrefix, runID, sha256.Sum(fetched.HTML))
		uri, err := o.deps.Blobs.PutObject(ctx, path, o.cfg.SnapshotContentType, bytes.NewReader(fetched.HTML))
		if err != nil {
			o.deps.Logger.Warn("snapshot upload failed",
				zap.String("word", word), zap.Error(err))
		} else {
			outcome.SnapshotURI = uri
		}
	}

	result := progress.ResultFound
	note := ""
	if !outcome.Found() {
		result = progress.ResultNotFound
	}
	if err := o.deps.Sink.Append(word, outcome.Entry); err != nil {
		o.deps.Logger.Error("append failed, dropping result",
			zap.String("word", word), zap.Error(err))
		result = progress.ResultDropped
		note = "append failed"
	}

	if o.deps.Ledger != nil {
		if err := o.deps.Ledger.Record(ctx, runID, outcome); err != nil {
			o.deps.Logger.Warn("outcome record failed",
				zap.String("word", word), zap.Error(err))
		}
	}
	if o.deps.Publisher != nil {
		msg := wordDoneMessage{
			RunID:       runID,
			Word:        word,
			Found:       outcome.Found(),
			Attempts:    outcome.Attempts,
			DurationMs:  outcome.Duration.Milliseconds(),
			SnapshotURI: outcome.SnapshotURI,
			FetchedAt:   outcome.FetchedAt,
		}
		if _, err := o.deps.Publisher.Publish(ctx, o.cfg.Topic, msg); err != nil {
			o.deps.Logger.Warn("completion publish failed",
				zap.String("word", word), zap.Error(err))
		}
	}

	o.emitDone(runID, word, result, outcome.Attempts, len(fetched.HTML), dur, note)
	return result
}

func (o *Orchestrator) emit(evt progress.Event) {
	if o.deps.Emitter == nil {
		return
	}
	o.deps.Emitter.Emit(evt)
}

func (o *Orchestrator) emitDone(runID, word string, result progress.Result, attempts, pageBytes int, dur time.Duration, note string) {
	o.emit(progress.Event{
		RunID:    runID,
		TS:       o.deps.Clock.Now(),
		Stage:    progress.StageWordDone,
		Word:     word,
		Result:   result,
		Attempts: attempts,
		Bytes:    int64(pageBytes),
		Dur:      dur,
		Note:     note,
	})
}

// attemptsFor derives the attempt count from whichever side carries it:
// retrying fetchers stamp it on success, ExhaustedError carries it on
// failure, and a bare not-found answer means a single call.
func attemptsFor(fetched dict.Fetched, err error) int {
	if err == nil {
		if fetched.Attempts > 0 {
			return fetched.Attempts
		}
		return 1
	}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.Attempts
	}
	return 1
}
