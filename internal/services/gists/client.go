package gists

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"
	"github.com/killallgit/gistapi/internal/metrics"
	"github.com/killallgit/gistapi/internal/models"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the public GitHub REST API root
const DefaultBaseURL = "https://api.github.com/"

// Config holds configuration for the gists client
type Config struct {
	// Base URL of the REST API (for testing). Default: https://api.github.com/
	BaseURL string

	// Optional personal access token; lifts the unauthenticated rate limit
	Token string

	// HTTP configuration
	Timeout   time.Duration // Default: 30s
	UserAgent string

	Metrics *metrics.Metrics
}

// Client talks to the GitHub gists API. It does not retry and does not
// interpret failures beyond classifying them.
type Client struct {
	gh      *github.Client
	metrics *metrics.Metrics
}

// SnippetDetail is the outcome of a gist detail request.
// Snippet is nil unless StatusCode is 200.
type SnippetDetail struct {
	StatusCode int
	Body       []byte
	Snippet    *models.Snippet
}

// OK reports whether the detail request succeeded
func (d *SnippetDetail) OK() bool {
	return d.StatusCode == http.StatusOK
}

// NewClient creates a new gists API client
func NewClient(cfg Config) (*Client, error) {
	// Apply defaults
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", cfg.BaseURL, err)
	}

	httpClient := &http.Client{}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = cfg.Timeout

	gh := github.NewClient(httpClient)
	gh.BaseURL = baseURL
	if cfg.UserAgent != "" {
		gh.UserAgent = cfg.UserAgent
	}

	return &Client{
		gh:      gh,
		metrics: cfg.Metrics,
	}, nil
}

// BaseURL returns the API root requests are resolved against
func (c *Client) BaseURL() string {
	return c.gh.BaseURL.String()
}

// ListSnippets returns the first page of a user's public gists.
// The body shape decides the outcome, not the status: a JSON list is the
// gist list, an object carrying "message" is reported as *UserLookupError,
// and anything else is a *TransportError.
func (c *Client) ListSnippets(ctx context.Context, username string) ([]models.Snippet, error) {
	// Empty names and dot segments would resolve to another endpoint
	if username == "" || username == "." || username == ".." {
		return nil, &UserLookupError{Username: username, Message: "Not Found", StatusCode: http.StatusNotFound}
	}

	req, err := c.gh.NewRequest(http.MethodGet, fmt.Sprintf("users/%s/gists", url.PathEscape(username)), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var body bytes.Buffer
	resp, err := c.gh.Do(ctx, req, &body)
	c.observe(metrics.OpListSnippets, resp)

	if resp == nil || resp.Response == nil || (err != nil && !isStatusFailure(resp, err)) {
		if err == nil {
			err = errors.New("no response")
		}
		return nil, &TransportError{Op: "list gists", URL: req.URL.String(), Err: err}
	}

	data := body.Bytes()
	if err != nil && resp.Body != nil {
		// go-github leaves the error body readable on the response
		data, _ = io.ReadAll(resp.Body)
	}

	var snippets []models.Snippet
	decodeErr := json.Unmarshal(data, &snippets)
	if decodeErr == nil && err == nil {
		return snippets, nil
	}

	if message, ok := errorDocument(data); ok {
		if message == "" {
			message = http.StatusText(statusCode(resp))
		}
		return nil, &UserLookupError{
			Username:   username,
			Message:    message,
			StatusCode: statusCode(resp),
		}
	}

	if err == nil {
		err = fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil, &TransportError{Op: "list gists", URL: req.URL.String(), Err: err}
}

// FetchSnippetDetail fetches a gist by its API URL. A non-success status is
// not an error: it is reported in the returned detail for the caller to handle.
func (c *Client) FetchSnippetDetail(ctx context.Context, detailURL string) (*SnippetDetail, error) {
	req, err := c.gh.NewRequest(http.MethodGet, detailURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var body bytes.Buffer
	resp, err := c.gh.Do(ctx, req, &body)
	c.observe(metrics.OpFetchDetail, resp)

	if resp == nil || (err != nil && !isStatusFailure(resp, err)) {
		if err == nil {
			err = errors.New("no response")
		}
		return nil, &TransportError{Op: "fetch gist", URL: detailURL, Err: err}
	}

	detail := &SnippetDetail{StatusCode: resp.StatusCode}
	if err != nil || !detail.OK() {
		return detail, nil
	}

	detail.Body = body.Bytes()

	var snippet models.Snippet
	if err := json.Unmarshal(detail.Body, &snippet); err != nil {
		return nil, &TransportError{Op: "fetch gist", URL: detailURL, Err: fmt.Errorf("decode response: %w", err)}
	}
	detail.Snippet = &snippet

	return detail, nil
}

// FetchRawFile downloads the raw content of a gist file.
// A non-success status is reported as *StatusError.
func (c *Client) FetchRawFile(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := c.gh.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	var body bytes.Buffer
	resp, err := c.gh.Do(ctx, req, &body)
	c.observe(metrics.OpFetchRaw, resp)

	if resp == nil || (err != nil && !isStatusFailure(resp, err)) {
		if err == nil {
			err = errors.New("no response")
		}
		return nil, &TransportError{Op: "fetch raw file", URL: rawURL, Err: err}
	}

	if err != nil || resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "fetch raw file", URL: rawURL, StatusCode: resp.StatusCode}
	}

	return body.Bytes(), nil
}

func (c *Client) observe(op string, resp *github.Response) {
	c.metrics.ObserveUpstream(op, statusCode(resp))
}

// isStatusFailure reports whether err came from a non-success status rather
// than from the transport.
func isStatusFailure(resp *github.Response, err error) bool {
	if isAPIError(err) {
		return true
	}
	return resp.StatusCode < 200 || resp.StatusCode > 299
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
