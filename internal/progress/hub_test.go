package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *captureSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func wordDone(word string) Event {
	return Event{
		RunID:  "run-1",
		TS:     time.Now().UTC(),
		Stage:  StageWordDone,
		Word:   word,
		Result: ResultFound,
	}
}

func TestHub_DeliversEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{MaxBatchWait: 10 * time.Millisecond}, sink)

	hub.Emit(wordDone("clear"))
	hub.Emit(wordDone("king"))

	require.Eventually(t, func() bool {
		return sink.count() == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close(context.Background()))
	require.True(t, sink.closed)
}

func TestHub_CloseDrainsPendingEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{MaxBatchWait: time.Hour}, sink) // flush only on close

	for i := 0; i < 10; i++ {
		hub.Emit(wordDone("word"))
	}
	require.NoError(t, hub.Close(context.Background()))
	require.Equal(t, 10, sink.count())
}

func TestHub_EmitAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{}, sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Emit(wordDone("late"))
	require.Equal(t, 0, sink.count())
}

func TestHub_InvalidEventsDiscarded(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{MaxBatchWait: 10 * time.Millisecond}, sink)

	hub.Emit(Event{Stage: StageWordDone}) // no run id, no timestamp
	hub.Emit(wordDone("clear"))

	require.NoError(t, hub.Close(context.Background()))
	require.Equal(t, 1, sink.count())
}

func TestEvent_Validate(t *testing.T) {
	t.Parallel()

	valid := wordDone("clear")
	require.NoError(t, valid.Validate())

	noWord := valid
	noWord.Word = ""
	require.Error(t, noWord.Validate())

	noResult := valid
	noResult.Result = ""
	require.Error(t, noResult.Validate())

	badStage := valid
	badStage.Stage = "NOPE"
	require.Error(t, badStage.Validate())

	runEvt := Event{RunID: "run-1", TS: time.Now(), Stage: StageRunStart}
	require.NoError(t, runEvt.Validate())
}
