// Package backend calls the protected backend on behalf of a browser request,
// relaying the browser's sealed session as the bearer credential.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-session-relay/credential"
	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
)

const (
	defaultTimeout  = 10 * time.Second
	maxErrorBodyLen = 4 << 10
)

// ErrStreamInterrupted reports a failure after the response was already
// started; nothing more can be sent to the browser.
var ErrStreamInterrupted = errors.New("stream interrupted")

// Headers copied from a backend file response onto the browser response.
var streamedHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Disposition",
	"Cache-Control",
	"ETag",
	"Last-Modified",
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// Client is the backend API client.
type Client struct {
	base   *url.URL
	relay  *credential.Relay
	client *http.Client
}

// NewClient creates a Client for the backend at cfg.BaseURL.
func NewClient(cfg Config, relay *credential.Relay) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("backend url is required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", raw)
	}
	if relay == nil {
		return nil, errors.New("credential relay is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, relay: relay, client: hc}, nil
}

// Do sends method path to the backend with the credential carried by in.
//
// Without a credential it returns ErrMissingCredential and makes no call. A
// non-2xx response is returned as *errors.UpstreamError carrying the status,
// and a failure to reach the backend wraps ErrTransport. On success the caller
// owns the response body.
func (c *Client) Do(ctx context.Context, in *http.Request, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInternal, "create backend request: %v", err)
	}
	if err := c.relay.Attach(req, in); err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", apperrors.ErrTransport, method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return nil, &apperrors.UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return resp, nil
}

// GetJSON fetches path and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, in *http.Request, path string, out any) error {
	resp, err := c.Do(ctx, in, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", apperrors.ErrTransport, path, err)
	}
	return nil
}

// Stream fetches path and copies the response, body and content headers, to w.
func (c *Client) Stream(ctx context.Context, in *http.Request, path string, w http.ResponseWriter) error {
	resp, err := c.Do(ctx, in, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	for _, h := range streamedHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStreamInterrupted, path, err)
	}
	return nil
}
