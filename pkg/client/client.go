// Package client is the HTTP client for the comment scraping and analysis
// backend. It covers the REST endpoints and the streamed analysis endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/replyscope/replyscope/pkg/logger"
)

const (
	// DefaultTarget is the backend address used when none is configured.
	DefaultTarget = "http://localhost:8080"

	// DefaultTimeout bounds unary requests. Streams are bounded only by ctx.
	DefaultTimeout = 30 * time.Second

	requestIDHeader = "X-Request-ID"
)

// Config configures a Client.
type Config struct {
	// Target is the backend base URL, e.g. "http://localhost:8080".
	Target string

	// Timeout bounds each unary request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// Client talks to one backend.
type Client struct {
	baseURL *url.URL

	// httpClient serves unary calls; streamClient carries no timeout so long
	// analyses are only bounded by the caller's context.
	httpClient   *http.Client
	streamClient *http.Client

	logger *slog.Logger
}

// New creates a Client for the configured target.
func New(c Config) (*Client, error) {
	target := strings.TrimSpace(c.Target)
	if target == "" {
		target = DefaultTarget
	}

	u, err := url.Parse(strings.TrimRight(target, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing target %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("target %q must be an http or https URL", target)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := c.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &Client{
		baseURL:      u,
		httpClient:   &http.Client{Timeout: timeout, Transport: transport},
		streamClient: &http.Client{Transport: transport},
		logger:       l.With("component", "client"),
	}, nil
}

// Target returns the backend base URL.
func (c *Client) Target() string {
	return c.baseURL.String()
}

// resolve joins a path (optionally carrying a query) onto the base URL.
// Absolute URLs are returned unchanged.
func (c *Client) resolve(ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", ref, err)
	}
	if r.IsAbs() {
		return r.String(), nil
	}

	return strings.TrimRight(c.baseURL.String(), "/") + "/" + strings.TrimLeft(ref, "/"), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())

	return req, nil
}

// doJSON sends a request and decodes a JSON response into out. On a non-2xx
// status it returns an *APIError using fallback when the body carries no
// message.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, fallback string) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", fallback, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(requestIDHeader),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapHTTPError(resp, fallback)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// taskPath builds "<prefix>/<escaped id>".
func taskPath(prefix, taskID string) string {
	return prefix + "/" + url.PathEscape(taskID)
}
