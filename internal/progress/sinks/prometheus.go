package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"dictbatch/internal/progress"
)

// PrometheusSink exports batch progress metrics. It owns all collectors
// for runs and per-word lookup completions.
type PrometheusSink struct {
	runsStarted prometheus.Counter
	runRuntime  prometheus.Histogram

	wordsDone    *prometheus.CounterVec
	lookupTime   *prometheus.HistogramVec
	pageBytes    prometheus.Counter
	wordAttempts prometheus.Histogram
}

// NewPrometheusSink registers the collectors against the provided
// registry; nil falls back to the default registerer.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictbatch_runs_started_total",
			Help: "Total batch runs that have started.",
		}),
		runRuntime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dictbatch_run_runtime_seconds",
			Help:    "Wall time per completed batch run.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600, 14400},
		}),
		wordsDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dictbatch_words_done_total",
			Help: "Word lookups completed, partitioned by result.",
		}, []string{"result"}),
		lookupTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dictbatch_lookup_duration_seconds",
			Help:    "Lookup duration partitioned by result.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"result"}),
		pageBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictbatch_page_bytes_total",
			Help: "Raw HTML bytes downloaded for found words.",
		}),
		wordAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dictbatch_word_attempts",
			Help:    "Fetch attempts per word, retries included.",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runRuntime,
		s.wordsDone,
		s.lookupTime,
		s.pageBytes,
		s.wordAttempts,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors using the provided batch. It is safe
// for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
	case progress.StageRunDone:
		if evt.Dur > 0 {
			s.runRuntime.Observe(evt.Dur.Seconds())
		}
	case progress.StageWordDone:
		result := string(evt.Result)
		s.wordsDone.WithLabelValues(result).Inc()
		if evt.Dur > 0 {
			s.lookupTime.WithLabelValues(result).Observe(evt.Dur.Seconds())
		}
		if evt.Bytes > 0 {
			s.pageBytes.Add(float64(evt.Bytes))
		}
		if evt.Attempts > 0 {
			s.wordAttempts.Observe(float64(evt.Attempts))
		}
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
