package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"newspulse/internal/cache"
	"newspulse/internal/model"
	"newspulse/internal/worker"
)

// googleNewsBase is the default keyword search endpoint. It serves an
// RSS channel of recent coverage for an arbitrary query.
const googleNewsBase = "https://news.google.com/rss/search"

// feedCacheTTL bounds how long a raw feed body is reused between
// polls of the same URL.
const feedCacheTTL = 5 * time.Minute

// RSS fetches articles from the Google News keyword search plus any
// statically configured feeds. Configured feeds are filtered by
// keyword; the search endpoint already is.
type RSS struct {
	client     *client
	store      cache.Cache
	logger     *slog.Logger
	feeds      []string
	searchBase string
	extractor  *Extractor
}

// NewRSS creates a fetcher from config. store may be nil to disable
// feed caching; extractor may be nil to skip full-content extraction.
func NewRSS(cfg model.FetchConfig, limiter *worker.Limiter, store cache.Cache, extractor *Extractor, logger *slog.Logger) *RSS {
	if logger == nil {
		logger = slog.Default()
	}
	return &RSS{
		client:     newClient(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, limiter, cfg.Proxy),
		store:      store,
		logger:     logger,
		feeds:      cfg.Feeds,
		searchBase: googleNewsBase,
		extractor:  extractor,
	}
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	PubDate     string    `xml:"pubDate"`
	Creator     string    `xml:"creator"`
	Source      rssSource `xml:"source"`
}

type rssSource struct {
	Name string `xml:",chardata"`
	URL  string `xml:"url,attr"`
}

// pubDateLayouts covers the date formats seen across real feeds.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// Search returns up to limit distinct articles for the keyword. One
// unreachable feed never fails the search; its articles are simply
// absent.
func (r *RSS) Search(ctx context.Context, keyword string, limit int) ([]model.Article, error) {
	if limit <= 0 {
		limit = 10
	}

	sources := append([]string{r.searchURL(keyword)}, r.feeds...)

	var articles []model.Article
	seen := make(map[string]bool)
	var lastErr error

	for i, feedURL := range sources {
		doc, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			lastErr = err
			r.logger.Warn("feed unavailable", "url", feedURL, "error", err)
			continue
		}

		// Index 0 is the keyword search; its results are pre-filtered.
		filter := i > 0

		for _, item := range doc.Channel.Items {
			art := r.toArticle(item, doc.Channel.Title)
			if art.Title == "" || art.URL == "" {
				continue
			}
			if filter && !mentionsKeyword(art, keyword) {
				continue
			}
			key := dedupeKey(art.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			articles = append(articles, art)
			if len(articles) >= limit {
				break
			}
		}
		if len(articles) >= limit {
			break
		}
	}

	if len(articles) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all feeds failed: %w", lastErr)
	}

	if r.extractor != nil {
		r.extractContent(ctx, articles)
	}

	return articles, nil
}

func (r *RSS) searchURL(keyword string) string {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")
	return r.searchBase + "?" + params.Encode()
}

func (r *RSS) fetchFeed(ctx context.Context, feedURL string) (*rssDoc, error) {
	var body []byte
	key := cache.Key("feed", feedURL)

	if r.store != nil {
		if cached, ok := r.store.Get(key); ok {
			body = cached
		}
	}
	if body == nil {
		fetched, err := r.client.get(ctx, feedURL)
		if err != nil {
			return nil, err
		}
		body = fetched
		if r.store != nil {
			r.store.Set(key, body, feedCacheTTL)
		}
	}

	var doc rssDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return &doc, nil
}

func (r *RSS) toArticle(item rssItem, channelTitle string) model.Article {
	source := strings.TrimSpace(item.Source.Name)
	if source == "" {
		source = strings.TrimSpace(channelTitle)
	}
	return model.Article{
		Title:       strings.TrimSpace(stripHTML(item.Title)),
		URL:         strings.TrimSpace(item.Link),
		Source:      source,
		Author:      strings.TrimSpace(item.Creator),
		Description: strings.TrimSpace(stripHTML(item.Description)),
		PublishedAt: parsePubDate(item.PubDate),
	}
}

// extractContent fills Article.Text in place for the articles whose
// pages can be fetched. Failures leave Text empty; the scorer then
// falls back to title and description.
func (r *RSS) extractContent(ctx context.Context, articles []model.Article) {
	for i := range articles {
		text, err := r.extractor.Extract(ctx, articles[i].URL)
		if err != nil {
			r.logger.Debug("content extraction failed",
				"url", articles[i].URL, "error", err)
			continue
		}
		articles[i].Text = text
	}
}

// parsePubDate tries the known feed date layouts; unparseable dates
// fall back to now so the article still lands in the current window.
func parsePubDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// mentionsKeyword reports whether the keyword appears in the title or
// description, case-insensitively.
func mentionsKeyword(art model.Article, keyword string) bool {
	kw := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(art.Title), kw) ||
		strings.Contains(strings.ToLower(art.Description), kw)
}

// dedupeKey collapses near-identical titles syndicated across feeds.
func dedupeKey(title string) string {
	key := strings.ToLower(strings.TrimSpace(title))
	if len(key) > 80 {
		key = key[:80]
	}
	return key
}
