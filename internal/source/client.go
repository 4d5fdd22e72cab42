package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/bts-board/internal/logger"
)

const (
	UserAgent   = "bts-board/1.0 (github.com/pfrederiksen/bts-board)"
	Timeout     = 30 * time.Second
	MaxBodySize = 10 << 20
)

var (
	// ErrNotFound means the file does not exist for that date (HTTP 404)
	ErrNotFound = errors.New("file not found")
	// ErrNoData means the response carried no CSV: an empty body or an HTML page
	ErrNoData = errors.New("no CSV data in response")
)

// Document is a downloaded CSV file
type Document struct {
	URL         string
	Body        string
	Size        int64
	ContentType string
	FetchedAt   time.Time
	Elapsed     time.Duration
}

// Client downloads CSV files over HTTP
type Client struct {
	client       *http.Client
	userAgent    string
	retries      int
	retryBackoff time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithRetries sets how many times a transient failure is retried.
// Zero disables retries.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithRetryBackoff sets the initial retry interval
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryBackoff = d
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// New creates a new Client instance
func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: Timeout,
		},
		userAgent:    UserAgent,
		retryBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads url and returns its body.
// Transport errors and 5xx responses are retried according to WithRetries;
// 404, other 4xx and non-CSV bodies fail immediately.
func (c *Client) Fetch(ctx context.Context, url string) (*Document, error) {
	start := time.Now()

	var doc *Document
	attempt := 0
	op := func() error {
		attempt++
		d, err := c.fetchOnce(ctx, url)
		if err != nil {
			return err
		}
		doc = d
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryBackoff
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.retries)), ctx)

	notify := func(err error, wait time.Duration) {
		logger.Warn("Retrying CSV fetch", logger.Fields{
			"url":     url,
			"attempt": attempt,
			"wait":    wait.String(),
		})
		logger.IncrCounter("source.retries")
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		logger.IncrCounter("source.fetch_errors")
		return nil, err
	}

	doc.Elapsed = time.Since(start)
	logger.IncrCounter("source.fetches")
	logger.RecordTiming("source.fetch", doc.Elapsed)
	return doc, nil
}

// fetchOnce performs a single GET. Errors that must not be retried are
// wrapped in backoff.Permanent.
func (c *Client) fetchOnce(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("fetching %s: %w", url, ctx.Err()))
		}
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, url))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	body := string(data)
	contentType := resp.Header.Get("Content-Type")

	if strings.TrimSpace(body) == "" {
		return nil, backoff.Permanent(fmt.Errorf("%w: empty body from %s", ErrNoData, url))
	}
	if looksLikeHTML(contentType, body) {
		return nil, backoff.Permanent(fmt.Errorf("%w: HTML page from %s", ErrNoData, url))
	}

	return &Document{
		URL:         url,
		Body:        body,
		Size:        int64(len(data)),
		ContentType: contentType,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// looksLikeHTML reports whether a response is an HTML page rather than CSV.
// Only a document root (<!doctype html> or <html>) or a non-empty <title>
// counts; CSV cells holding inline markup such as "<b>x</b>" do not.
func looksLikeHTML(contentType, body string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}

	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html") {
		return true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return false
	}
	return strings.TrimSpace(doc.Find("title").Text()) != ""
}
