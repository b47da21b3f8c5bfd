// Package fetch retrieves remote pages and binary documents for the crawlers.
// All remote HTTP in the pipeline goes through one Client so that timeouts
// and per-domain rate limits apply uniformly.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/config"
	"github.com/lexel-search/caselaw-pipeline/internal/metrics"
)

// Page is the raw result of a single fetch.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves a URL and decodes it into a parsed HTML document.
// Adapters take this interface so their secondary fetches can be faked in
// tests.
type Fetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*goquery.Document, error)
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Client implements Fetcher using a Colly collector cloned per request.
type Client struct {
	base    *colly.Collector
	limiter *domainLimiter
	logger  *zap.Logger
}

// NewClient constructs a configured Colly-based Client.
func NewClient(cfg config.HTTPConfig, logger *zap.Logger) (*Client, error) {
	base := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout(),
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout())

	return &Client{
		base:    base,
		limiter: newDomainLimiter(cfg.RateLimitPerDomain),
		logger:  logger,
	}, nil
}

// Fetch retrieves the raw body of a URL. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if err := c.limiter.wait(ctx, rawURL); err != nil {
		return Page{}, err
	}

	collector := c.base.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		page := Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
		}
		send(fetchResult{page: page})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(fetchResult{err: fmt.Errorf("fetch %s (status %d): %w", rawURL, status, err)})
	})

	// Visit reports non-2xx responses as errors itself, after OnError has
	// already queued the richer status-bearing error. Wait first and prefer
	// whatever the callbacks produced.
	visitErr := collector.Visit(rawURL)
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}
		if res.err != nil {
			metrics.FetchErrors.Inc()
			c.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(res.err))
		}
		return res.page, res.err
	default:
		metrics.FetchErrors.Inc()
		if visitErr != nil {
			return Page{}, fmt.Errorf("visit %s: %w", rawURL, visitErr)
		}
		return Page{}, fmt.Errorf("fetch %s produced no result", rawURL)
	}
}

// FetchPage retrieves a URL and parses the body as HTML.
func (c *Client) FetchPage(ctx context.Context, rawURL string) (*goquery.Document, error) {
	page, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", rawURL, err)
	}
	return doc, nil
}

type fetchResult struct {
	page Page
	err  error
}
