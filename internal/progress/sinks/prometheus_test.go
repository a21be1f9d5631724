package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"dictbatch/internal/progress"
)

func TestPrometheusSink_CountsWordResults(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	now := time.Now().UTC()
	batch := []progress.Event{
		{RunID: "r", TS: now, Stage: progress.StageRunStart},
		{RunID: "r", TS: now, Stage: progress.StageWordDone, Word: "clear", Result: progress.ResultFound, Attempts: 1, Bytes: 2048, Dur: 120 * time.Millisecond},
		{RunID: "r", TS: now, Stage: progress.StageWordDone, Word: "zzz", Result: progress.ResultNotFound, Attempts: 5, Dur: 5 * time.Second},
		{RunID: "r", TS: now, Stage: progress.StageRunDone, Dur: 10 * time.Second},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, float64(1), testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.wordsDone.WithLabelValues("found")))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.wordsDone.WithLabelValues("not_found")))
	require.Equal(t, float64(2048), testutil.ToFloat64(sink.pageBytes))
}

func TestPrometheusSink_DoubleRegisterFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}

func TestLogSink_ConsumeAndClose(t *testing.T) {
	t.Parallel()

	sink := NewLogSink(nil)
	batch := []progress.Event{
		{RunID: "r", TS: time.Now(), Stage: progress.StageWordDone, Word: "clear", Result: progress.ResultFound},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))
	require.NoError(t, sink.Close(context.Background()))
}
