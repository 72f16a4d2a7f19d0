// Package explorer implements the HTTP JSON client shared by the block explorer adapters and the price source.
// Requests are made once: a failed request is reported to the caller, who decides when to try again.
package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/tarancss/chainscan/lib/block/types"
)

// Default configuration values.
const (
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "chainscan/1.0"
	maxErrBody       = 256
)

// Client performs GET and POST requests decoding JSON responses.
type Client struct {
	client *http.Client
	agent  string
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the timeout of every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithProxy routes requests through the given proxy url. An empty or invalid url is ignored.
func WithProxy(proxy string) Option {
	return func(c *Client) {
		if proxy == "" {
			return
		}

		u, err := url.Parse(proxy)
		if err != nil {
			return
		}

		c.client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.agent = agent
	}
}

// New creates a new Client.
func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{Timeout: DefaultTimeout},
		agent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetJSON requests rawURL with the query values q and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, q url.Values, out interface{}) error {
	if len(q) > 0 {
		rawURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	return c.do(req, out)
}

// PostJSON posts body encoded as JSON to rawURL and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, "create request")
	}

	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Host)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.Wrapf(types.ErrRateLimited, "%s", req.URL.Host)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))

		return errors.Wrapf(types.ErrProvider, "%s status %d: %s", req.URL.Host, resp.StatusCode, msg)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode response from %s", req.URL.Host)
	}

	return nil
}
