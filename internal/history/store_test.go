package history

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"newspulse/internal/model"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testArticle(id, keyword, source string, analyzedAt time.Time, label model.Label, confidence float64) model.AnalyzedArticle {
	return model.AnalyzedArticle{
		ID:          id,
		Keyword:     keyword,
		Title:       "title " + id,
		URL:         "https://example.com/" + id,
		Source:      source,
		PublishedAt: analyzedAt.Add(-time.Hour),
		Result: model.EnsembleResult{
			Label:      label,
			Confidence: confidence,
			Scores:     model.Scores{Positive: confidence, Negative: (1 - confidence) / 2, Neutral: (1 - confidence) / 2},
		},
		AnalyzedAt: analyzedAt,
	}
}

func TestStore_AppendAndQuery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seq1, err := store.Append(ctx, testArticle("a1", "tesla", "BBC", testBase, model.LabelPositive, 0.8))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	seq2, err := store.Append(ctx, testArticle("a2", "tesla", "CNN", testBase.Add(time.Minute), model.LabelNegative, 0.6))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if seq2 <= seq1 {
		t.Errorf("sequence ids must increase: %d then %d", seq1, seq2)
	}

	records, err := store.Query(ctx, "tesla", testBase.Add(-time.Hour), testBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "a1" || records[1].ID != "a2" {
		t.Errorf("records must be ordered by analyzed_at ascending: %s, %s", records[0].ID, records[1].ID)
	}
	if records[0].Result.Label != model.LabelPositive {
		t.Errorf("label roundtrip failed: %s", records[0].Result.Label)
	}
	if !records[0].AnalyzedAt.Equal(testBase) {
		t.Errorf("analyzed_at roundtrip failed: %v", records[0].AnalyzedAt)
	}
}

func TestStore_AppendIdempotence(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	art := testArticle("dup", "tesla", "BBC", testBase, model.LabelNeutral, 0.5)
	if _, err := store.Append(ctx, art); err != nil {
		t.Fatalf("first append: %v", err)
	}

	_, err := store.Append(ctx, art)
	if !errors.Is(err, model.ErrDuplicateArticle) {
		t.Fatalf("expected ErrDuplicateArticle, got %v", err)
	}

	records, err := store.Query(ctx, "tesla", testBase.Add(-time.Hour), testBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("duplicate append must not change record count, got %d", len(records))
	}
}

func TestStore_AppendBatchSkipsDuplicates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, testArticle("b1", "oil", "BBC", testBase, model.LabelPositive, 0.7)); err != nil {
		t.Fatalf("seed append: %v", err)
	}

	written, err := store.AppendBatch(ctx, []model.AnalyzedArticle{
		testArticle("b1", "oil", "BBC", testBase, model.LabelPositive, 0.7),
		testArticle("b2", "oil", "CNN", testBase.Add(time.Minute), model.LabelNegative, 0.6),
		testArticle("b3", "oil", "Reuters", testBase.Add(2*time.Minute), model.LabelNeutral, 0.5),
	})
	if err != nil {
		t.Fatalf("append batch: %v", err)
	}
	if written != 2 {
		t.Errorf("expected 2 new rows, got %d", written)
	}
}

func TestStore_Has(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Append(ctx, testArticle("h1", "gold", "BBC", testBase, model.LabelPositive, 0.9)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.Has(ctx, "h1")
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if !got {
		t.Error("expected Has to find existing id")
	}

	got, err = store.Has(ctx, "missing")
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if got {
		t.Error("expected Has to miss unknown id")
	}
}

func TestStore_QueryWindowAndKeyword(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	inWindow := testArticle("w1", "tesla", "BBC", testBase, model.LabelPositive, 0.8)
	atUpperBound := testArticle("w2", "tesla", "BBC", testBase.Add(time.Hour), model.LabelPositive, 0.8)
	otherKeyword := testArticle("w3", "oil", "BBC", testBase, model.LabelPositive, 0.8)

	for _, art := range []model.AnalyzedArticle{inWindow, atUpperBound, otherKeyword} {
		if _, err := store.Append(ctx, art); err != nil {
			t.Fatalf("append %s: %v", art.ID, err)
		}
	}

	// Window is [since, until): the record exactly at until is out.
	records, err := store.Query(ctx, "tesla", testBase, testBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 || records[0].ID != "w1" {
		t.Errorf("expected only w1 in half-open window, got %d records", len(records))
	}

	// Empty keyword spans all keywords.
	records, err = store.Query(ctx, "", testBase, testBase.Add(time.Minute))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records across keywords, got %d", len(records))
	}
}

func TestStore_AverageConfidence(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.AverageConfidence(ctx, "tesla", testBase, testBase.Add(time.Hour))
	if !errors.Is(err, model.ErrNoData) {
		t.Fatalf("empty window must return ErrNoData, got %v", err)
	}

	for i, conf := range []float64{0.6, 0.8} {
		art := testArticle(
			[]string{"c1", "c2"}[i], "tesla", "BBC",
			testBase.Add(time.Duration(i)*time.Minute), model.LabelPositive, conf)
		if _, err := store.Append(ctx, art); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	avg, err := store.AverageConfidence(ctx, "tesla", testBase, testBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("average confidence: %v", err)
	}
	if math.Abs(avg-0.7) > 1e-9 {
		t.Errorf("expected avg 0.7, got %v", avg)
	}
}

func TestStore_CountDistinctSources(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sources := []string{"A", "A", "B", "C"}
	for i, src := range sources {
		art := testArticle(
			"s"+string(rune('1'+i)), "tesla", src,
			testBase.Add(time.Duration(i)*time.Minute), model.LabelNeutral, 0.5)
		if _, err := store.Append(ctx, art); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	count, err := store.CountDistinctSources(ctx, "tesla", testBase, testBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("count distinct sources: %v", err)
	}
	if count != 3 {
		t.Errorf("sources {A,A,B,C} must count 3 distinct, got %d", count)
	}
}

func TestStore_SummaryStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	labels := []model.Label{model.LabelPositive, model.LabelPositive, model.LabelNegative, model.LabelNeutral}
	for i, label := range labels {
		art := testArticle(
			"t"+string(rune('1'+i)), "tesla", "BBC",
			testBase.Add(time.Duration(i)*time.Minute), label, 0.5)
		if _, err := store.Append(ctx, art); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	stats, err := store.SummaryStats(ctx, "tesla", testBase, testBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("summary stats: %v", err)
	}
	if stats.TotalArticles != 4 || stats.PositiveCount != 2 || stats.NegativeCount != 1 || stats.NeutralCount != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if math.Abs(stats.PositivePct-50) > 1e-9 {
		t.Errorf("expected positive percentage 50, got %v", stats.PositivePct)
	}

	// Empty window: zero stats, no error.
	stats, err = store.SummaryStats(ctx, "missing", testBase, testBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("summary stats: %v", err)
	}
	if stats.TotalArticles != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}

func TestStore_TopKeywords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seed := []struct {
		id      string
		keyword string
		label   model.Label
	}{
		{"k1", "tesla", model.LabelPositive},
		{"k2", "tesla", model.LabelNegative},
		{"k3", "tesla", model.LabelPositive},
		{"k4", "oil", model.LabelNeutral},
	}
	for i, s := range seed {
		art := testArticle(s.id, s.keyword, "BBC",
			testBase.Add(time.Duration(i)*time.Minute), s.label, 0.5)
		if _, err := store.Append(ctx, art); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	stats, err := store.TopKeywords(ctx, testBase, testBase.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("top keywords: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 keywords, got %d", len(stats))
	}
	if stats[0].Keyword != "tesla" || stats[0].ArticleCount != 3 {
		t.Errorf("expected tesla first with 3 articles, got %+v", stats[0])
	}
	if math.Abs(stats[0].SentimentRatio-(1.0/3)) > 1e-9 {
		t.Errorf("expected sentiment ratio 1/3, got %v", stats[0].SentimentRatio)
	}
}

func TestStore_Cleanup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	old := testArticle("old", "tesla", "BBC", testBase.Add(-48*time.Hour), model.LabelNeutral, 0.5)
	recent := testArticle("recent", "tesla", "BBC", testBase, model.LabelNeutral, 0.5)
	for _, art := range []model.AnalyzedArticle{old, recent} {
		if _, err := store.Append(ctx, art); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	deleted, err := store.Cleanup(ctx, testBase.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted row, got %d", deleted)
	}

	has, err := store.Has(ctx, "recent")
	if err != nil || !has {
		t.Errorf("recent record must survive cleanup (has=%v, err=%v)", has, err)
	}
}
