// Package bing implements the dictionary fetch capability against the
// Bing dictionary clientsearch endpoint.
package bing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"dictbatch/internal/dict"
	collyfetch "dictbatch/internal/fetch/colly"
)

// Config selects the endpoint and the client identity sent with each
// request. The defaults mirror the desktop dictionary client the
// endpoint was built for.
type Config struct {
	Endpoint  string
	Market    string
	SetLang   string
	ClientVer string
	Form      string
}

// DefaultConfig returns the documented endpoint parameters.
func DefaultConfig() Config {
	return Config{
		Endpoint:  "https://cn.bing.com/dict/clientsearch",
		Market:    "zh-CN",
		SetLang:   "zh",
		ClientVer: "BDDTV3.5.1.4320",
		Form:      "BDVEHC",
	}
}

// Transport fetches one page by URL.
type Transport interface {
	Get(ctx context.Context, url string) (collyfetch.Page, error)
}

// Client implements dict.Fetcher for the clientsearch endpoint.
type Client struct {
	cfg       Config
	transport Transport
}

// NewClient builds a Client over the given transport.
func NewClient(cfg Config, transport Transport) *Client {
	if cfg.Endpoint == "" {
		cfg = DefaultConfig()
	}
	return &Client{cfg: cfg, transport: transport}
}

// LookupURL builds the query URL for word.
func (c *Client) LookupURL(word string) string {
	params := url.Values{}
	params.Set("mkt", c.cfg.Market)
	params.Set("setLang", c.cfg.SetLang)
	params.Set("form", c.cfg.Form)
	params.Set("ClientVer", c.cfg.ClientVer)
	params.Set("q", word)
	return c.cfg.Endpoint + "?" + params.Encode()
}

// Fetch retrieves and parses the dictionary page for word. A 404 or a
// page without dictionary content is ErrNotFound; other transport
// failures (network errors, timeouts, 5xx responses) come back as
// transient.
func (c *Client) Fetch(ctx context.Context, word string) (dict.Fetched, error) {
	page, err := c.transport.Get(ctx, c.LookupURL(word))
	if err != nil {
		if page.StatusCode == http.StatusNotFound {
			return dict.Fetched{}, fmt.Errorf("word %q: %w", word, dict.ErrNotFound)
		}
		return dict.Fetched{}, dict.Transient(word, err)
	}

	entry, err := ParseEntry(page.Body)
	if err != nil {
		if dict.IsTerminal(err) {
			return dict.Fetched{}, fmt.Errorf("word %q: %w", word, dict.ErrNotFound)
		}
		return dict.Fetched{}, dict.Transient(word, err)
	}
	return dict.Fetched{
		Entry:      entry,
		HTML:       page.Body,
		StatusCode: page.StatusCode,
	}, nil
}
