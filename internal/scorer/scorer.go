package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newspulse/internal/classifier"
	"newspulse/internal/ensemble"
	"newspulse/internal/model"
	"newspulse/internal/worker"
)

// Deduper answers whether an article id has been scored before.
// The history store satisfies this.
type Deduper interface {
	Has(ctx context.Context, id string) (bool, error)
}

// Scorer runs every configured classifier over each article and fuses
// the verdicts into one ensemble result. Batches fan out over a worker
// pool; within one article the adapters run concurrently, each under
// its own timeout.
type Scorer struct {
	adapters       []classifier.Adapter
	aggregator     *ensemble.Aggregator
	dedup          Deduper
	pool           *worker.Pool[outcome]
	adapterTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// outcome is the per-article result collected by the pool.
type outcome struct {
	article model.AnalyzedArticle
	skipped bool
	err     error
}

// Options tunes a Scorer beyond its required collaborators.
type Options struct {
	// AdapterTimeout bounds each classifier call. Zero means 10s.
	AdapterTimeout time.Duration

	// Concurrency is the batch worker count. Zero means 4.
	Concurrency int

	Logger *slog.Logger
}

// New creates a Scorer. dedup may be nil, in which case every article
// in a batch is scored.
func New(adapters []classifier.Adapter, aggregator *ensemble.Aggregator, dedup Deduper, opts Options) *Scorer {
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = 10 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scorer{
		adapters:       adapters,
		aggregator:     aggregator,
		dedup:          dedup,
		pool:           worker.NewPool[outcome](opts.Concurrency),
		adapterTimeout: opts.AdapterTimeout,
		logger:         opts.Logger,
		now:            time.Now,
	}
}

// ScoreText classifies a single text with the full ensemble. Each
// adapter runs in its own goroutine under the adapter timeout; verdicts
// from failed adapters are dropped and the rest are fused with
// renormalized weights. Only when every adapter fails does the call
// error with ErrAllAdaptersFailed.
func (s *Scorer) ScoreText(ctx context.Context, text string) (model.EnsembleResult, error) {
	if len(s.adapters) == 0 {
		return model.EnsembleResult{}, model.ErrInsufficientInput
	}

	verdicts := make([]model.ModelVerdict, len(s.adapters))
	errs := make([]error, len(s.adapters))

	var wg sync.WaitGroup
	for i, adapter := range s.adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
			defer cancel()
			verdicts[i], errs[i] = adapter.Classify(callCtx, text)
		}()
	}
	wg.Wait()

	usable := verdicts[:0]
	for i, v := range verdicts {
		if errs[i] != nil {
			s.logger.Warn("classifier failed",
				"model", s.adapters[i].Name(),
				"error", errs[i])
			continue
		}
		usable = append(usable, v)
	}

	if len(usable) == 0 {
		return model.EnsembleResult{}, model.ErrAllAdaptersFailed
	}

	return s.aggregator.Aggregate(usable)
}

// ScoreBatch scores every article for the keyword and returns the
// analyzed subset plus a summary. Previously seen articles are skipped
// via the deduper; articles whose ensemble fails entirely are counted
// as failed without aborting the batch. An empty input is an error.
func (s *Scorer) ScoreBatch(ctx context.Context, keyword string, articles []model.Article) ([]model.AnalyzedArticle, model.BatchSummary, error) {
	if len(articles) == 0 {
		return nil, model.BatchSummary{}, model.ErrEmptyBatch
	}

	outcomes := s.pool.Run(ctx, len(articles), func(ctx context.Context, i int) outcome {
		return s.scoreOne(ctx, keyword, articles[i])
	})

	analyzed := make([]model.AnalyzedArticle, 0, len(articles))
	summary := model.BatchSummary{}
	var confSum float64

	for i, out := range outcomes {
		switch {
		case out.skipped:
			summary.Skipped++
		case out.err != nil:
			summary.Failed++
			s.logger.Warn("article scoring failed",
				"keyword", keyword,
				"title", articles[i].Title,
				"error", out.err)
		case out.article.ID != "":
			analyzed = append(analyzed, out.article)
			summary.Total++
			confSum += out.article.Result.Confidence
			switch out.article.Result.Label {
			case model.LabelPositive:
				summary.Positive++
			case model.LabelNegative:
				summary.Negative++
			case model.LabelNeutral:
				summary.Neutral++
			}
		default:
			// Zero-value slot: the pool never dispatched this task
			// because the context was cancelled.
			summary.Failed++
		}
	}

	if summary.Total > 0 {
		summary.AvgConfidence = confSum / float64(summary.Total)
	}

	return analyzed, summary, nil
}

func (s *Scorer) scoreOne(ctx context.Context, keyword string, art model.Article) outcome {
	id := art.Fingerprint()

	if s.dedup != nil {
		seen, err := s.dedup.Has(ctx, id)
		if err != nil {
			return outcome{err: fmt.Errorf("dedup lookup: %w", err)}
		}
		if seen {
			return outcome{skipped: true}
		}
	}

	result, err := s.ScoreText(ctx, scoringText(art))
	if err != nil {
		return outcome{err: err}
	}

	return outcome{article: model.AnalyzedArticle{
		ID:          id,
		Keyword:     keyword,
		Title:       art.Title,
		URL:         art.URL,
		Source:      art.Source,
		Author:      art.Author,
		Description: art.Description,
		PublishedAt: art.PublishedAt,
		Result:      result,
		AnalyzedAt:  s.now().UTC(),
	}}
}

// scoringText picks the richest available text for classification:
// extracted body first, then title plus description.
func scoringText(art model.Article) string {
	if art.Text != "" {
		return art.Text
	}
	if art.Description != "" {
		return art.Title + ". " + art.Description
	}
	return art.Title
}
