package scorer

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"newspulse/internal/classifier"
	"newspulse/internal/ensemble"
	"newspulse/internal/model"
)

// stubAdapter returns a canned distribution chosen by the input text.
type stubAdapter struct {
	name  string
	score func(text string) (model.Scores, error)
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Classify(_ context.Context, text string) (model.ModelVerdict, error) {
	scores, err := s.score(text)
	if err != nil {
		return model.ModelVerdict{}, err
	}
	return model.ModelVerdict{Model: s.name, Scores: scores}, nil
}

// slowAdapter blocks until its context is cancelled.
type slowAdapter struct{}

func (slowAdapter) Name() string { return "slow" }

func (slowAdapter) Classify(ctx context.Context, _ string) (model.ModelVerdict, error) {
	<-ctx.Done()
	return model.ModelVerdict{}, ctx.Err()
}

// mapDeduper marks a fixed id set as already seen.
type mapDeduper struct {
	seen map[string]bool
	err  error
}

func (m *mapDeduper) Has(_ context.Context, id string) (bool, error) {
	return m.seen[id], m.err
}

func fixed(scores model.Scores) func(string) (model.Scores, error) {
	return func(string) (model.Scores, error) { return scores, nil }
}

func failing(err error) func(string) (model.Scores, error) {
	return func(string) (model.Scores, error) { return model.Scores{}, err }
}

func testArticle(title string) model.Article {
	return model.Article{
		Title:       title,
		URL:         "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
		Source:      "Example Wire",
		Description: "some descriptive body text for " + title,
		PublishedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newTestScorer(adapters []classifier.Adapter, dedup Deduper, timeout time.Duration) *Scorer {
	return New(adapters,
		ensemble.NewAggregator(map[string]float64{"a": 0.5, "b": 0.3, "c": 0.2, "slow": 0.3}),
		dedup,
		Options{AdapterTimeout: timeout, Concurrency: 2})
}

func TestScoreText_AllAdaptersFailed(t *testing.T) {
	s := newTestScorer([]classifier.Adapter{
		&stubAdapter{name: "a", score: failing(errors.New("a down"))},
		&stubAdapter{name: "b", score: failing(errors.New("b down"))},
	}, nil, time.Second)

	_, err := s.ScoreText(context.Background(), "markets rally on strong earnings report")
	if !errors.Is(err, model.ErrAllAdaptersFailed) {
		t.Fatalf("expected ErrAllAdaptersFailed, got %v", err)
	}
}

func TestScoreText_PartialFailureFusesRest(t *testing.T) {
	s := newTestScorer([]classifier.Adapter{
		&stubAdapter{name: "a", score: fixed(model.Scores{Positive: 0.9, Negative: 0.05, Neutral: 0.05})},
		&stubAdapter{name: "b", score: failing(errors.New("b down"))},
	}, nil, time.Second)

	result, err := s.ScoreText(context.Background(), "markets rally on strong earnings report")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != model.LabelPositive {
		t.Errorf("expected positive from surviving adapter, got %s", result.Label)
	}
	if math.Abs(result.Scores.Sum()-1) > 1e-9 {
		t.Errorf("fused scores must sum to 1, got %v", result.Scores.Sum())
	}
}

func TestScoreText_SlowAdapterTimesOut(t *testing.T) {
	s := newTestScorer([]classifier.Adapter{
		slowAdapter{},
		&stubAdapter{name: "a", score: fixed(model.Scores{Positive: 0.1, Negative: 0.8, Neutral: 0.1})},
	}, nil, 20*time.Millisecond)

	start := time.Now()
	result, err := s.ScoreText(context.Background(), "shares plunge after fraud scandal breaks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Label != model.LabelNegative {
		t.Errorf("expected verdict from the fast adapter, got %s", result.Label)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("slow adapter must be bounded by the timeout, took %v", elapsed)
	}
}

func TestScoreBatch_Empty(t *testing.T) {
	s := newTestScorer([]classifier.Adapter{
		&stubAdapter{name: "a", score: fixed(model.Scores{Neutral: 1})},
	}, nil, time.Second)

	_, _, err := s.ScoreBatch(context.Background(), "tesla", nil)
	if !errors.Is(err, model.ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestScoreBatch_LabelsAndSummary(t *testing.T) {
	perTitle := map[string][3]model.Scores{
		"good news": {
			{Positive: 0.9, Negative: 0.05, Neutral: 0.05},
			{Positive: 0.8, Negative: 0.1, Neutral: 0.1},
			{Positive: 0.7, Negative: 0.1, Neutral: 0.2},
		},
		"bad news": {
			{Positive: 0.1, Negative: 0.8, Neutral: 0.1},
			{Positive: 0.05, Negative: 0.9, Neutral: 0.05},
			{Positive: 0.2, Negative: 0.6, Neutral: 0.2},
		},
		"flat news": {
			{Positive: 0.3, Negative: 0.3, Neutral: 0.4},
			{Positive: 0.25, Negative: 0.25, Neutral: 0.5},
			{Positive: 0.2, Negative: 0.2, Neutral: 0.6},
		},
	}

	adapterFor := func(name string, slot int) classifier.Adapter {
		return &stubAdapter{name: name, score: func(text string) (model.Scores, error) {
			for title, scores := range perTitle {
				if strings.Contains(text, title) {
					return scores[slot], nil
				}
			}
			return model.Scores{Neutral: 1}, nil
		}}
	}

	s := newTestScorer([]classifier.Adapter{
		adapterFor("a", 0), adapterFor("b", 1), adapterFor("c", 2),
	}, nil, time.Second)

	articles := []model.Article{
		testArticle("good news"),
		testArticle("bad news"),
		testArticle("flat news"),
	}

	analyzed, summary, err := s.ScoreBatch(context.Background(), "tesla", articles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analyzed) != 3 {
		t.Fatalf("expected 3 analyzed articles, got %d", len(analyzed))
	}

	wantLabels := map[string]model.Label{
		"good news": model.LabelPositive,
		"bad news":  model.LabelNegative,
		"flat news": model.LabelNeutral,
	}
	for _, art := range analyzed {
		if want := wantLabels[art.Title]; art.Result.Label != want {
			t.Errorf("%q: expected %s, got %s", art.Title, want, art.Result.Label)
		}
		if art.Keyword != "tesla" {
			t.Errorf("%q: keyword not set", art.Title)
		}
		if art.ID == "" {
			t.Errorf("%q: fingerprint id missing", art.Title)
		}
		if art.AnalyzedAt.IsZero() {
			t.Errorf("%q: analyzed_at not stamped", art.Title)
		}
	}

	if summary.Total != 3 || summary.Positive != 1 || summary.Negative != 1 || summary.Neutral != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("expected clean batch, got %+v", summary)
	}
	if summary.AvgConfidence <= 0 || summary.AvgConfidence > 1 {
		t.Errorf("avg confidence out of range: %v", summary.AvgConfidence)
	}
}

func TestScoreBatch_DeduperSkipsSeen(t *testing.T) {
	articles := []model.Article{
		testArticle("already scored"),
		testArticle("fresh story"),
	}
	dedup := &mapDeduper{seen: map[string]bool{articles[0].Fingerprint(): true}}

	s := newTestScorer([]classifier.Adapter{
		&stubAdapter{name: "a", score: fixed(model.Scores{Positive: 0.7, Negative: 0.1, Neutral: 0.2})},
	}, dedup, time.Second)

	analyzed, summary, err := s.ScoreBatch(context.Background(), "tesla", articles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(analyzed) != 1 || analyzed[0].Title != "fresh story" {
		t.Fatalf("expected only the fresh article, got %d", len(analyzed))
	}
	if summary.Skipped != 1 || summary.Total != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestScoreBatch_FailureIsNonFatal(t *testing.T) {
	s := newTestScorer([]classifier.Adapter{
		&stubAdapter{name: "a", score: func(text string) (model.Scores, error) {
			if strings.Contains(text, "poison") {
				return model.Scores{}, errors.New("adapter choked")
			}
			return model.Scores{Positive: 0.6, Negative: 0.2, Neutral: 0.2}, nil
		}},
	}, nil, time.Second)

	analyzed, summary, err := s.ScoreBatch(context.Background(), "tesla", []model.Article{
		testArticle("poison pill story"),
		testArticle("ordinary story"),
	})
	if err != nil {
		t.Fatalf("batch must not abort on one failed article: %v", err)
	}
	if len(analyzed) != 1 {
		t.Fatalf("expected 1 analyzed article, got %d", len(analyzed))
	}
	if summary.Failed != 1 || summary.Total != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}
