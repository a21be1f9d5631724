package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutObject_StoresAndReturnsURI(t *testing.T) {
	t.Parallel()

	store := New()
	uri, err := store.PutObject(context.Background(), "pages/run-1/abc.html", "text/html", strings.NewReader("<html/>"))
	require.NoError(t, err)
	require.Equal(t, "memory://pages/run-1/abc.html", uri)

	body, ok := store.Get("pages/run-1/abc.html")
	require.True(t, ok)
	require.Equal(t, "<html/>", string(body))
	require.Equal(t, 1, store.Len())
}

func TestPutObject_OverwritesExisting(t *testing.T) {
	t.Parallel()

	store := New()
	_, err := store.PutObject(context.Background(), "p", "", strings.NewReader("one"))
	require.NoError(t, err)
	_, err = store.PutObject(context.Background(), "p", "", strings.NewReader("two"))
	require.NoError(t, err)

	body, ok := store.Get("p")
	require.True(t, ok)
	require.Equal(t, "two", string(body))
	require.Equal(t, 1, store.Len())
}

func TestGet_MissingPath(t *testing.T) {
	t.Parallel()

	_, ok := New().Get("missing")
	require.False(t, ok)
}
