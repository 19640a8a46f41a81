package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newspulse/internal/fetch"
	"newspulse/internal/model"
	"newspulse/internal/scorer"
	"newspulse/internal/trend"
)

// HistoryStore is the slice of the history store the pipeline needs.
type HistoryStore interface {
	AppendBatch(ctx context.Context, arts []model.AnalyzedArticle) (int, error)
	Query(ctx context.Context, keyword string, since, until time.Time) ([]model.HistoryRecord, error)
	SummaryStats(ctx context.Context, keyword string, since, until time.Time) (model.SummaryStats, error)
	TopKeywords(ctx context.Context, since, until time.Time, limit int) ([]model.KeywordStat, error)
}

// AnalysisReport is the full outcome of one analyze run.
type AnalysisReport struct {
	Keyword  string                  `json:"keyword"`
	Articles []model.AnalyzedArticle `json:"articles"`
	Summary  model.BatchSummary      `json:"summary"`
	Written  int                     `json:"written"`
}

// Analyzer wires fetching, scoring, persistence and trend derivation
// into the operations the CLI and HTTP layers expose.
type Analyzer struct {
	fetcher fetch.Fetcher
	scorer  *scorer.Scorer
	store   HistoryStore
	trends  *trend.Engine
	logger  *slog.Logger
	now     func() time.Time
}

// NewAnalyzer assembles the pipeline.
func NewAnalyzer(fetcher fetch.Fetcher, sc *scorer.Scorer, store HistoryStore, trends *trend.Engine, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		fetcher: fetcher,
		scorer:  sc,
		store:   store,
		trends:  trends,
		logger:  logger,
		now:     time.Now,
	}
}

// Analyze fetches recent articles for the keyword, scores them with
// the ensemble, and appends the results to history. Articles already
// in history are skipped by the scorer's deduper before any model
// runs.
func (a *Analyzer) Analyze(ctx context.Context, keyword string, limit int) (*AnalysisReport, error) {
	start := a.now()

	articles, err := a.fetcher.Search(ctx, keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", keyword, err)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("fetch %q: %w", keyword, model.ErrEmptyBatch)
	}

	analyzed, summary, err := a.scorer.ScoreBatch(ctx, keyword, articles)
	if err != nil {
		return nil, fmt.Errorf("score %q: %w", keyword, err)
	}

	written := 0
	if len(analyzed) > 0 {
		written, err = a.store.AppendBatch(ctx, analyzed)
		if err != nil {
			return nil, fmt.Errorf("persist %q: %w", keyword, err)
		}
	}

	a.logger.Info("analysis complete",
		"keyword", keyword,
		"fetched", len(articles),
		"scored", summary.Total,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"written", written,
		"elapsed", a.now().Sub(start))

	return &AnalysisReport{
		Keyword:  keyword,
		Articles: analyzed,
		Summary:  summary,
		Written:  written,
	}, nil
}

// History returns records for the last `days` days, optionally
// filtered by keyword. Empty keyword spans all keywords.
func (a *Analyzer) History(ctx context.Context, keyword string, days int) ([]model.HistoryRecord, error) {
	since, until := a.window(days)
	return a.store.Query(ctx, keyword, since, until)
}

// Trends derives a daily sentiment series for the keyword over the
// last `days` days.
func (a *Analyzer) Trends(ctx context.Context, keyword string, days int) ([]model.TrendPoint, error) {
	since, until := a.window(days)
	return a.trends.Trend(ctx, keyword, since, until, 24*time.Hour)
}

// Stats summarises the window and ranks the most active keywords.
func (a *Analyzer) Stats(ctx context.Context, keyword string, days int) (model.SummaryStats, []model.KeywordStat, error) {
	since, until := a.window(days)

	stats, err := a.store.SummaryStats(ctx, keyword, since, until)
	if err != nil {
		return model.SummaryStats{}, nil, err
	}
	stats.PeriodDays = days

	top, err := a.store.TopKeywords(ctx, since, until, 10)
	if err != nil {
		return model.SummaryStats{}, nil, err
	}
	return stats, top, nil
}

func (a *Analyzer) window(days int) (time.Time, time.Time) {
	if days <= 0 {
		days = 7
	}
	until := a.now().UTC()
	return until.AddDate(0, 0, -days), until
}
