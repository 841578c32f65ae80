// Package apiclient talks to the cooperative REST API.
//
// The client is stateless apart from an optional token source: when the
// source yields a token, requests carry it as a bearer Authorization
// header. There is no retry and no token refresh; an expired token comes
// back as a 401 *Error for the caller to interpret.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of an error response is read for the
// detail message.
const maxErrorBody = 64 << 10

// Config configures a Client.
type Config struct {
	BaseURL    string        // e.g. http://localhost:8001
	Timeout    time.Duration // per-request ceiling; 0 means 30s
	HTTPClient *http.Client  // optional; its Transport is wrapped
}

// Client issues requests against the API base URL.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens oauth2.TokenSource
	log    *zap.Logger
}

// New validates the base URL and builds a Client without credentials.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rt := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		rt = cfg.HTTPClient.Transport
	}

	return &Client{
		base: base,
		http: &http.Client{
			Transport: &requestIDTransport{base: rt, log: logger},
			Timeout:   timeout,
		},
		log: logger,
	}, nil
}

// ParseBaseURL checks that raw is an absolute http(s) URL and strips any
// trailing slash.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: must be an absolute http(s) URL", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// WithTokenSource returns a copy of c that attaches tokens from ts.
// The copy shares the underlying HTTP client.
func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// CloseIdleConnections releases pooled keep-alive connections to the API.
func (c *Client) CloseIdleConnections() { c.http.CloseIdleConnections() }

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// Do sends one request. path may carry a query string. A url.Values body
// is form-encoded; any other non-nil body is sent as JSON. When out is
// non-nil a 2xx body is decoded into it.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newError(resp.StatusCode, data)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// authorize sets the bearer header when a token is known.
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	tok, err := c.tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return
	}
	tok.SetAuthHeader(req)
}
