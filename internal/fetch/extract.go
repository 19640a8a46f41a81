package fetch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"newspulse/internal/cache"
	"newspulse/internal/model"
	"newspulse/internal/util"
	"newspulse/internal/worker"
)

// contentSelectors is tried in order; the first match with enough text
// wins. News sites converge on a small set of container conventions.
var contentSelectors = []string{
	"article",
	".article-content",
	".post-content",
	".entry-content",
	"[role=main]",
	"main",
}

// minContentLength is the shortest extraction worth keeping; anything
// smaller is usually navigation or a paywall stub.
const minContentLength = 200

// maxContentLength caps stored article text.
const maxContentLength = 10000

var whitespaceRun = regexp.MustCompile(`\s+`)

// Extractor pulls readable article text out of a news page. Fetches
// respect robots.txt and the per-domain rate limiter, and results are
// cached so re-analysis of a keyword does not re-crawl.
type Extractor struct {
	client *client
	robots *util.RobotsChecker
	store  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewExtractor creates an Extractor from config. store may be nil to
// disable caching.
func NewExtractor(cfg model.FetchConfig, limiter *worker.Limiter, robots *util.RobotsChecker, store cache.Cache, ttl time.Duration, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client: newClient(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, limiter, cfg.Proxy),
		robots: robots,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Extract returns the readable text of the page at rawURL.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (string, error) {
	key := cache.Key("content", rawURL)
	if e.store != nil {
		if cached, ok := e.store.Get(key); ok {
			return string(cached), nil
		}
	}

	if e.robots != nil && !e.robots.Allowed(ctx, rawURL) {
		return "", fmt.Errorf("robots.txt disallows %s", rawURL)
	}

	body, err := e.client.get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text, err := extractText(body)
	if err != nil {
		return "", err
	}
	if len(text) < minContentLength {
		return "", fmt.Errorf("no substantial content at %s", rawURL)
	}

	if e.store != nil {
		e.store.Set(key, []byte(text), e.ttl)
	}
	return text, nil
}

func extractText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside, form, iframe").Remove()

	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			if text := normalizeText(sel.Text()); len(text) >= minContentLength {
				return text, nil
			}
		}
	}

	// Fallback: stitch the paragraphs together.
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return normalizeText(strings.Join(parts, " ")), nil
}

func normalizeText(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if len(text) > maxContentLength {
		text = text[:maxContentLength]
	}
	return text
}

// stripHTML drops markup from feed fields, which frequently embed
// anchor tags and entities inside titles and descriptions.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(tokenizer.Text())
		}
	}
}
