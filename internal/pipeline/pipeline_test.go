package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newspulse/internal/classifier"
	"newspulse/internal/ensemble"
	"newspulse/internal/history"
	"newspulse/internal/model"
	"newspulse/internal/scorer"
	"newspulse/internal/trend"
)

// fakeFetcher returns a canned article list.
type fakeFetcher struct {
	articles []model.Article
	err      error
	calls    int
}

func (f *fakeFetcher) Search(_ context.Context, _ string, limit int) ([]model.Article, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.articles) {
		return f.articles[:limit], nil
	}
	return f.articles, nil
}

// moodAdapter scores by crude keyword matching, enough to steer test
// articles to a known label.
type moodAdapter struct{}

func (moodAdapter) Name() string { return "mood" }

func (moodAdapter) Classify(_ context.Context, text string) (model.ModelVerdict, error) {
	scores := model.Scores{Positive: 0.2, Negative: 0.2, Neutral: 0.6}
	switch {
	case strings.Contains(text, "surge"):
		scores = model.Scores{Positive: 0.8, Negative: 0.1, Neutral: 0.1}
	case strings.Contains(text, "crash"):
		scores = model.Scores{Positive: 0.1, Negative: 0.8, Neutral: 0.1}
	}
	return model.ModelVerdict{Model: "mood", Scores: scores}, nil
}

func testArticles() []model.Article {
	published := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	return []model.Article{
		{
			Title:       "Shares surge on record earnings",
			URL:         "https://example.com/surge",
			Source:      "Example Wire",
			Description: "Investors cheer a blowout quarter.",
			PublishedAt: published,
		},
		{
			Title:       "Markets crash as fears mount",
			URL:         "https://example.com/crash",
			Source:      "Example Wire",
			Description: "A brutal session across the board.",
			PublishedAt: published.Add(time.Hour),
		},
	}
}

func newTestAnalyzer(t *testing.T, fetcher *fakeFetcher) (*Analyzer, *history.Store) {
	t.Helper()

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	sc := scorer.New(
		[]classifier.Adapter{moodAdapter{}},
		ensemble.NewAggregator(map[string]float64{"mood": 1.0}),
		store,
		scorer.Options{AdapterTimeout: time.Second, Concurrency: 2},
	)

	return NewAnalyzer(fetcher, sc, store, trend.NewEngine(store), nil), store
}

func TestAnalyze_EndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{articles: testArticles()}
	analyzer, store := newTestAnalyzer(t, fetcher)
	ctx := context.Background()

	report, err := analyzer.Analyze(ctx, "markets", 10)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if report.Written != 2 {
		t.Errorf("expected 2 rows written, got %d", report.Written)
	}
	if report.Summary.Positive != 1 || report.Summary.Negative != 1 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}

	records, err := store.Query(ctx, "markets", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 persisted records, got %d", len(records))
	}
}

func TestAnalyze_RerunSkipsSeenArticles(t *testing.T) {
	fetcher := &fakeFetcher{articles: testArticles()}
	analyzer, _ := newTestAnalyzer(t, fetcher)
	ctx := context.Background()

	if _, err := analyzer.Analyze(ctx, "markets", 10); err != nil {
		t.Fatalf("first analyze: %v", err)
	}

	report, err := analyzer.Analyze(ctx, "markets", 10)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if report.Written != 0 || report.Summary.Skipped != 2 {
		t.Errorf("re-analysis must skip seen articles, got %+v written=%d",
			report.Summary, report.Written)
	}
}

func TestAnalyze_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("feeds unreachable")}
	analyzer, _ := newTestAnalyzer(t, fetcher)

	if _, err := analyzer.Analyze(context.Background(), "markets", 10); err == nil {
		t.Fatal("expected fetch failure to surface")
	}
}

func TestAnalyze_NoArticles(t *testing.T) {
	fetcher := &fakeFetcher{}
	analyzer, _ := newTestAnalyzer(t, fetcher)

	_, err := analyzer.Analyze(context.Background(), "obscure", 10)
	if !errors.Is(err, model.ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch for zero fetched articles, got %v", err)
	}
}

func TestTrends_DailySeries(t *testing.T) {
	fetcher := &fakeFetcher{articles: testArticles()}
	analyzer, _ := newTestAnalyzer(t, fetcher)
	ctx := context.Background()

	if _, err := analyzer.Analyze(ctx, "markets", 10); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	points, err := analyzer.Trends(ctx, "markets", 7)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 daily buckets, got %d", len(points))
	}

	// Scoring just happened, so the signal sits in the final bucket.
	last := points[len(points)-1]
	if last.Positive != 1 || last.Negative != 1 {
		t.Errorf("expected today's bucket to hold both articles, got %+v", last)
	}
}

func TestStats_WindowSummary(t *testing.T) {
	fetcher := &fakeFetcher{articles: testArticles()}
	analyzer, _ := newTestAnalyzer(t, fetcher)
	ctx := context.Background()

	if _, err := analyzer.Analyze(ctx, "markets", 10); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	stats, top, err := analyzer.Stats(ctx, "", 7)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalArticles != 2 || stats.PeriodDays != 7 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(top) != 1 || top[0].Keyword != "markets" {
		t.Errorf("unexpected top keywords: %+v", top)
	}
}
