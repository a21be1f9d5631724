package bing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"dictbatch/internal/dict"
	collyfetch "dictbatch/internal/fetch/colly"
)

type fakeTransport struct {
	lastURL string
	page    collyfetch.Page
	err     error
}

func (t *fakeTransport) Get(_ context.Context, url string) (collyfetch.Page, error) {
	t.lastURL = url
	return t.page, t.err
}

func TestClient_LookupURL(t *testing.T) {
	t.Parallel()

	c := NewClient(DefaultConfig(), nil)
	url := c.LookupURL("clear")

	require.Contains(t, url, "https://cn.bing.com/dict/clientsearch?")
	require.Contains(t, url, "q=clear")
	require.Contains(t, url, "mkt=zh-CN")
	require.Contains(t, url, "setLang=zh")
	require.Contains(t, url, "ClientVer=BDDTV3.5.1.4320")
	require.Contains(t, url, "form=BDVEHC")
}

func TestClient_Fetch_Success(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{page: collyfetch.Page{
		StatusCode: http.StatusOK,
		Body:       []byte(samplePage),
	}}
	c := NewClient(DefaultConfig(), transport)

	fetched, err := c.Fetch(context.Background(), "clear")
	require.NoError(t, err)
	require.Equal(t, "clear", fetched.Entry.Headword)
	require.Equal(t, []byte(samplePage), fetched.HTML)
	require.Equal(t, http.StatusOK, fetched.StatusCode)
	require.Contains(t, transport.lastURL, "q=clear")
}

func TestClient_Fetch_TransportErrorIsTransient(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{err: errors.New("connection refused")}
	c := NewClient(DefaultConfig(), transport)

	_, err := c.Fetch(context.Background(), "clear")
	require.Error(t, err)
	require.False(t, dict.IsTerminal(err))

	var transient *dict.TransientError
	require.ErrorAs(t, err, &transient)
	require.Equal(t, "clear", transient.Word)
}

func TestClient_Fetch_404IsNotFound(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{
		page: collyfetch.Page{StatusCode: http.StatusNotFound},
		err:  errors.New("response failed: Not Found"),
	}
	c := NewClient(DefaultConfig(), transport)

	_, err := c.Fetch(context.Background(), "zzzzzz")
	require.ErrorIs(t, err, dict.ErrNotFound)
	require.True(t, dict.IsTerminal(err))

	var transient *dict.TransientError
	require.False(t, errors.As(err, &transient))
}

func TestClient_Fetch_EmptyPageIsNotFound(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{page: collyfetch.Page{
		StatusCode: http.StatusOK,
		Body:       []byte("<html><body></body></html>"),
	}}
	c := NewClient(DefaultConfig(), transport)

	_, err := c.Fetch(context.Background(), "zzzzzz")
	require.ErrorIs(t, err, dict.ErrNotFound)
}
