// Package api is the HTTP client for the image search and chat backend.
package api

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
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"
	DefaultTimeout = 30 * time.Second
)

// Client talks to the versioned backend API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a client. An empty baseURL uses DefaultBaseURL and a
// non-positive timeout uses DefaultTimeout. The timeout only applies to
// requests whose context carries no deadline of its own, so callers such
// as the chat controller can run longer requests.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// ImageURL returns the URL serving the stored image with the given id.
func (c *Client) ImageURL(id string) string {
	return c.baseURL + "/storage/images/" + url.PathEscape(id)
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, result)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, result any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        path,
		body:        bytes.NewReader(reqBody),
		contentType: "application/json",
	}, result)
}

// do sends req and decodes a 2xx JSON body into result. Every failure is
// returned as *Error.
func (c *Client) do(ctx context.Context, req request, result any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, req.body)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("create request: %w", err)}
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp.StatusCode, body)
	}

	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		if result != nil {
			return malformed("empty response body")
		}
		return nil
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &Error{Kind: KindMalformed, Message: "invalid JSON", Err: err}
	}

	return nil
}
