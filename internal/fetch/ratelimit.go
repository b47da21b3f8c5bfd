package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// domainLimiter manages per-domain token buckets so that one slow source
// never starves another and no source is hammered by the worker pool.
type domainLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	defaultRate rate.Limit
	burst       int
}

func newDomainLimiter(rps float64) *domainLimiter {
	r := rate.Limit(rps)
	if rps <= 0 {
		r = rate.Inf
	}
	return &domainLimiter{
		limiters:    make(map[string]*rate.Limiter),
		defaultRate: r,
		burst:       1,
	}
}

// wait blocks until a token is available for the URL's domain, respecting the
// context.
func (l *domainLimiter) wait(ctx context.Context, rawURL string) error {
	domain := "unknown"
	if u, err := url.Parse(rawURL); err == nil {
		domain = u.Hostname()
	}
	l.mu.Lock()
	limiter, ok := l.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(l.defaultRate, l.burst)
		l.limiters[domain] = limiter
	}
	l.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
