package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublish_RecordsMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id, err := pub.Publish(context.Background(), "word-done", map[string]string{"word": "clear"})
	require.NoError(t, err)
	require.Equal(t, "msg-1", id)

	id, err = pub.Publish(context.Background(), "word-done", map[string]string{"word": "king"})
	require.NoError(t, err)
	require.Equal(t, "msg-2", id)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "word-done", msgs[0].Topic)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(msgs[0].Data, &payload))
	require.Equal(t, "clear", payload["word"])
}

func TestPublish_RejectsUnmarshalablePayload(t *testing.T) {
	t.Parallel()

	pub := New()
	_, err := pub.Publish(context.Background(), "word-done", func() {})
	require.Error(t, err)
	require.Empty(t, pub.Messages())
}
