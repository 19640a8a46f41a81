package trend

import (
	"context"
	"fmt"
	"time"

	"newspulse/internal/model"
)

// Querier is the read path into the history store.
type Querier interface {
	Query(ctx context.Context, keyword string, since, until time.Time) ([]model.HistoryRecord, error)
}

// Engine derives time-bucketed sentiment trajectories from history
// records. Everything it produces is recomputable; nothing here is
// persisted.
type Engine struct {
	store Querier
}

// NewEngine creates an Engine over the given history reader.
func NewEngine(store Querier) *Engine {
	return &Engine{store: store}
}

// Trend partitions [since, until) into contiguous buckets of width
// and aggregates each record into the bucket containing its
// analyzed_at. The result always holds exactly
// ceil((until-since)/width) points; empty buckets are emitted with
// zero counts so callers get a fixed-length series for charting.
func (e *Engine) Trend(ctx context.Context, keyword string, since, until time.Time, width time.Duration) ([]model.TrendPoint, error) {
	if width <= 0 {
		return nil, fmt.Errorf("bucket width %v: %w", width, model.ErrInvalidRange)
	}
	if !until.After(since) {
		return nil, fmt.Errorf("window [%v, %v): %w", since, until, model.ErrInvalidRange)
	}

	span := until.Sub(since)
	n := int((span + width - 1) / width)

	points := make([]model.TrendPoint, n)
	sums := make([]float64, n)
	counts := make([]int, n)

	for i := range points {
		start := since.Add(time.Duration(i) * width)
		end := start.Add(width)
		if end.After(until) {
			end = until
		}
		points[i] = model.TrendPoint{BucketStart: start, BucketEnd: end}
	}

	records, err := e.store.Query(ctx, keyword, since, until)
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}

	for _, rec := range records {
		i := int(rec.AnalyzedAt.Sub(since) / width)
		if i < 0 || i >= n {
			continue
		}
		switch rec.Result.Label {
		case model.LabelPositive:
			points[i].Positive++
		case model.LabelNegative:
			points[i].Negative++
		case model.LabelNeutral:
			points[i].Neutral++
		}
		sums[i] += rec.Result.Confidence
		counts[i]++
	}

	for i := range points {
		if counts[i] > 0 {
			points[i].AvgConfidence = sums[i] / float64(counts[i])
		}
	}

	return points, nil
}
