package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Label classifies the overall sentiment of a text.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Scores holds one probability-like value per sentiment class.
// Individual values are in [0,1]; the sum is only guaranteed to be
// 1.0 after ensemble aggregation.
type Scores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Get returns the score for the given label.
func (s Scores) Get(label Label) float64 {
	switch label {
	case LabelPositive:
		return s.Positive
	case LabelNegative:
		return s.Negative
	case LabelNeutral:
		return s.Neutral
	}
	return 0
}

// Sum returns the total of the three class scores.
func (s Scores) Sum() float64 {
	return s.Positive + s.Negative + s.Neutral
}

// ModelVerdict is one classifier's raw output for one article.
// Weight may be left zero by the classifier; the aggregator then
// assigns the configured weight for the model id.
type ModelVerdict struct {
	Model  string  `json:"model"`
	Scores Scores  `json:"scores"`
	Weight float64 `json:"weight,omitempty"`
}

// EnsembleResult is the fused verdict for one article.
// Label is the argmax of Scores and Confidence equals Scores[Label];
// the three scores sum to 1 within floating tolerance.
type EnsembleResult struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Scores     Scores  `json:"scores"`
}

// Article is raw input supplied by a news fetcher.
type Article struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"published_at"`
	Text        string    `json:"-"`
}

// Fingerprint derives the deduplication id from the fields that
// identify an article regardless of which feed delivered it.
func (a Article) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(a.Title))
	h.Write([]byte{0})
	h.Write([]byte(a.Source))
	h.Write([]byte{0})
	h.Write([]byte(a.PublishedAt.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyzedArticle is an article plus its ensemble verdict. It is
// written once to the history store and never mutated afterwards.
type AnalyzedArticle struct {
	ID          string         `json:"id"`
	Keyword     string         `json:"keyword"`
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	Source      string         `json:"source"`
	Author      string         `json:"author"`
	Description string         `json:"description"`
	PublishedAt time.Time      `json:"published_at"`
	Result      EnsembleResult `json:"result"`
	AnalyzedAt  time.Time      `json:"analyzed_at"`
}

// HistoryRecord is the persisted form of AnalyzedArticle. Seq is
// assigned by the store at write time and increases monotonically.
type HistoryRecord struct {
	Seq int64 `json:"seq"`
	AnalyzedArticle
}

// TrendPoint aggregates sentiment over one time bucket. Derived on
// demand from history records, never persisted.
type TrendPoint struct {
	BucketStart   time.Time `json:"bucket_start"`
	BucketEnd     time.Time `json:"bucket_end"`
	AvgConfidence float64   `json:"avg_confidence"`
	Positive      int       `json:"positive"`
	Negative      int       `json:"negative"`
	Neutral       int       `json:"neutral"`
}

// BatchSummary describes the outcome of scoring one batch.
// Counts and AvgConfidence cover the successfully scored subset only.
type BatchSummary struct {
	Total         int     `json:"total_articles"`
	Positive      int     `json:"positive"`
	Negative      int     `json:"negative"`
	Neutral       int     `json:"neutral"`
	AvgConfidence float64 `json:"average_confidence"`
	Skipped       int     `json:"skipped"`
	Failed        int     `json:"failed"`
}

// SummaryStats is a windowed aggregate over the history store.
type SummaryStats struct {
	TotalArticles   int     `json:"total_articles"`
	PositiveCount   int     `json:"positive_count"`
	NegativeCount   int     `json:"negative_count"`
	NeutralCount    int     `json:"neutral_count"`
	PositivePct     float64 `json:"positive_percentage"`
	NegativePct     float64 `json:"negative_percentage"`
	NeutralPct      float64 `json:"neutral_percentage"`
	AvgConfidence   float64 `json:"avg_confidence"`
	UniqueKeywords  int     `json:"unique_keywords"`
	UniqueSources   int     `json:"unique_sources"`
	PeriodDays      int     `json:"period_days"`
}

// KeywordStat summarises recent activity for one keyword.
type KeywordStat struct {
	Keyword        string  `json:"keyword"`
	ArticleCount   int     `json:"article_count"`
	AvgConfidence  float64 `json:"avg_confidence"`
	PositiveCount  int     `json:"positive_count"`
	NegativeCount  int     `json:"negative_count"`
	SentimentRatio float64 `json:"sentiment_ratio"`
}
