package model

import "errors"

// Error taxonomy for scoring and history operations. Callers match
// with errors.Is; wrapped variants carry per-call context.
var (
	// ErrInsufficientInput: no verdicts available for aggregation.
	ErrInsufficientInput = errors.New("no model verdicts to aggregate")

	// ErrAllAdaptersFailed: every classifier failed for one article.
	// Non-fatal to a batch; the article is reported as failed.
	ErrAllAdaptersFailed = errors.New("all classifier adapters failed")

	// ErrEmptyBatch: the caller submitted zero articles.
	ErrEmptyBatch = errors.New("empty article batch")

	// ErrDuplicateArticle: the article id already exists in history.
	// Expected during re-analysis; callers treat it as a no-op.
	ErrDuplicateArticle = errors.New("duplicate article")

	// ErrNoData: an aggregate query matched zero records.
	ErrNoData = errors.New("no records in window")

	// ErrInvalidRange: trend parameters describe an empty or inverted
	// time window.
	ErrInvalidRange = errors.New("invalid time range")
)
