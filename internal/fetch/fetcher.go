package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"newspulse/internal/model"
	"newspulse/internal/worker"
)

// Fetcher finds recent articles mentioning a keyword.
type Fetcher interface {
	Search(ctx context.Context, keyword string, limit int) ([]model.Article, error)
}

// client wraps the shared HTTP plumbing: per-domain rate limiting,
// user agent, redirect cap, and a body size limit.
type client struct {
	httpClient *http.Client
	limiter    *worker.Limiter
	userAgent  string
	maxBytes   int64
}

func newClient(timeout time.Duration, userAgent string, maxBytes int64, limiter *worker.Limiter, proxy string) *client {
	transport := http.DefaultTransport
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil {
			t := http.DefaultTransport.(*http.Transport).Clone()
			t.Proxy = http.ProxyURL(proxyURL)
			transport = t
		}
	}
	return &client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:   limiter,
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// get fetches a URL and returns the body, bounded by maxBytes. The
// per-domain limiter is consulted before the request goes out.
func (c *client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
