// Package fetcher retrieves connpass pages and parses them into goquery documents.
//
// Every request first waits on a rate limiter so that the crawl never sends
// requests faster than the configured politeness delay. A non-200 response or
// a transport error is reported as ErrFetch, which callers treat as
// "no data" rather than as a fatal error.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/pfrederiksen/connpass-attendance/internal/limiter"
	"github.com/pfrederiksen/connpass-attendance/internal/logger"
)

const (
	UserAgent = "connpass-attendance/1.0 (github.com/pfrederiksen/connpass-attendance)"
	Timeout   = 30 * time.Second
)

// ErrFetch marks a page that could not be retrieved.
var ErrFetch = errors.New("fetch failed")

// Fetcher returns the parsed document at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Options configures a Client.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Limiter   limiter.RateLimiter // nil means limiter.NewDelay(limiter.DefaultDelay)
}

// Client fetches pages over HTTP.
type Client struct {
	http    *resty.Client
	limiter limiter.RateLimiter
}

// New creates a Client. Zero option fields take the package defaults.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}
	if opts.Limiter == nil {
		opts.Limiter = limiter.NewDelay(limiter.DefaultDelay)
	}

	client := resty.New()
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)

	return &Client{
		http:    client,
		limiter: opts.Limiter,
	}
}

// Fetch waits for the limiter, then GETs url and parses the body. The
// limiter's delay runs from the moment Fetch returns, whatever the outcome.
// Non-200 statuses and transport failures wrap ErrFetch. Context
// cancellation is returned as is.
func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	defer c.limiter.Done()

	logger.Info("GET", logger.Fields{"url": url})
	logger.IncrCounter("fetch.requests")

	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(url)
	logger.RecordTiming("fetch.latency", time.Since(start))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.IncrCounter("fetch.failures")
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}

	if resp.StatusCode() != http.StatusOK {
		logger.IncrCounter("fetch.failures")
		return nil, fmt.Errorf("%w: %s: unexpected status code: %d", ErrFetch, url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML from %s: %w", url, err)
	}
	return doc, nil
}
