package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"newspulse/internal/model"
)

// historyColumns must match the Scan order in scanRecord.
const historyColumns = `seq, id, keyword, title, url, source, author, description,
	published_at, label, confidence, positive_score, negative_score, neutral_score, analyzed_at`

// Store is the append-only history of scored articles, backed by
// SQLite. The unique index on id makes duplicate-check-and-insert
// atomic: two concurrent identical appends race on the constraint and
// exactly one wins. Rows are never updated; corrections are new rows.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
// WAL mode lets trend queries read while an analysis is writing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history (
			seq             INTEGER PRIMARY KEY AUTOINCREMENT,
			id              TEXT NOT NULL UNIQUE,
			keyword         TEXT NOT NULL,
			title           TEXT NOT NULL,
			url             TEXT NOT NULL DEFAULT '',
			source          TEXT NOT NULL DEFAULT '',
			author          TEXT NOT NULL DEFAULT '',
			description     TEXT NOT NULL DEFAULT '',
			published_at    INTEGER NOT NULL,
			label           TEXT NOT NULL,
			confidence      REAL NOT NULL,
			positive_score  REAL NOT NULL,
			negative_score  REAL NOT NULL,
			neutral_score   REAL NOT NULL,
			analyzed_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_keyword_analyzed ON history(keyword, analyzed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_history_analyzed ON history(analyzed_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Append inserts one analyzed article and returns its sequence id.
// Returns model.ErrDuplicateArticle when the id already exists;
// callers on the scoring path treat that as a no-op.
func (s *Store) Append(ctx context.Context, art model.AnalyzedArticle) (int64, error) {
	query, args, err := insertBuilder(art).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("id %s: %w", art.ID, model.ErrDuplicateArticle)
		}
		return 0, fmt.Errorf("insert history: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return seq, nil
}

// AppendBatch persists a scored batch atomically: either every
// non-duplicate article lands or none does, so a cancelled analysis
// never leaves partial history behind. Returns the number of rows
// written (duplicates are skipped, not errors).
func (s *Store) AppendBatch(ctx context.Context, arts []model.AnalyzedArticle) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	written := 0
	for _, art := range arts {
		query, args, err := insertBuilder(art).ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return 0, fmt.Errorf("insert history: %w", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// Has reports whether an article id is already recorded.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM history WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check id: %w", err)
	}
	return true, nil
}

// Query returns records in [since, until) ordered by analyzed_at
// ascending. An empty keyword matches all keywords.
func (s *Store) Query(ctx context.Context, keyword string, since, until time.Time) ([]model.HistoryRecord, error) {
	builder := sq.Select(historyColumns).
		From("history").
		Where(windowPredicate(keyword, since, until)).
		OrderBy("analyzed_at ASC", "seq ASC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.HistoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// CountDistinctSources counts unique sources in the window.
func (s *Store) CountDistinctSources(ctx context.Context, keyword string, since, until time.Time) (int, error) {
	query, args, err := sq.Select("COUNT(DISTINCT source)").
		From("history").
		Where(windowPredicate(keyword, since, until)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sources: %w", err)
	}
	return count, nil
}

// AverageConfidence returns the mean confidence over the window.
// Returns model.ErrNoData when the window holds zero records so
// callers can substitute a neutral default instead of trusting a
// meaningless zero.
func (s *Store) AverageConfidence(ctx context.Context, keyword string, since, until time.Time) (float64, error) {
	query, args, err := sq.Select("COUNT(*)", "COALESCE(AVG(confidence), 0)").
		From("history").
		Where(windowPredicate(keyword, since, until)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	var avg float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count, &avg); err != nil {
		return 0, fmt.Errorf("average confidence: %w", err)
	}
	if count == 0 {
		return 0, model.ErrNoData
	}
	return avg, nil
}

// SummaryStats aggregates the window into per-class counts,
// percentages and diversity counters.
func (s *Store) SummaryStats(ctx context.Context, keyword string, since, until time.Time) (model.SummaryStats, error) {
	query, args, err := sq.Select(
		"COUNT(*)",
		"SUM(CASE WHEN label = 'positive' THEN 1 ELSE 0 END)",
		"SUM(CASE WHEN label = 'negative' THEN 1 ELSE 0 END)",
		"SUM(CASE WHEN label = 'neutral' THEN 1 ELSE 0 END)",
		"COALESCE(AVG(confidence), 0)",
		"COUNT(DISTINCT keyword)",
		"COUNT(DISTINCT source)",
	).From("history").Where(windowPredicate(keyword, since, until)).ToSql()
	if err != nil {
		return model.SummaryStats{}, fmt.Errorf("build query: %w", err)
	}

	var stats model.SummaryStats
	var pos, neg, neu sql.NullInt64
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalArticles, &pos, &neg, &neu,
		&stats.AvgConfidence, &stats.UniqueKeywords, &stats.UniqueSources,
	)
	if err != nil {
		return model.SummaryStats{}, fmt.Errorf("summary stats: %w", err)
	}

	stats.PositiveCount = int(pos.Int64)
	stats.NegativeCount = int(neg.Int64)
	stats.NeutralCount = int(neu.Int64)
	if stats.TotalArticles > 0 {
		total := float64(stats.TotalArticles)
		stats.PositivePct = float64(stats.PositiveCount) / total * 100
		stats.NegativePct = float64(stats.NegativeCount) / total * 100
		stats.NeutralPct = float64(stats.NeutralCount) / total * 100
	}
	return stats, nil
}

// TopKeywords lists the most analyzed keywords in the window.
func (s *Store) TopKeywords(ctx context.Context, since, until time.Time, limit int) ([]model.KeywordStat, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := sq.Select(
		"keyword",
		"COUNT(*)",
		"COALESCE(AVG(confidence), 0)",
		"SUM(CASE WHEN label = 'positive' THEN 1 ELSE 0 END)",
		"SUM(CASE WHEN label = 'negative' THEN 1 ELSE 0 END)",
	).From("history").
		Where(windowPredicate("", since, until)).
		GroupBy("keyword").
		OrderBy("COUNT(*) DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []model.KeywordStat
	for rows.Next() {
		var ks model.KeywordStat
		if err := rows.Scan(&ks.Keyword, &ks.ArticleCount, &ks.AvgConfidence,
			&ks.PositiveCount, &ks.NegativeCount); err != nil {
			return nil, fmt.Errorf("scan keyword stat: %w", err)
		}
		if ks.ArticleCount > 0 {
			ks.SentimentRatio = float64(ks.PositiveCount-ks.NegativeCount) / float64(ks.ArticleCount)
		}
		stats = append(stats, ks)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return stats, nil
}

// Cleanup deletes records analyzed before the cutoff. Retention is an
// operator decision; the scoring path never calls this.
func (s *Store) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE analyzed_at < ?`, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return deleted, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func insertBuilder(art model.AnalyzedArticle) sq.InsertBuilder {
	return sq.Insert("history").Columns(
		"id", "keyword", "title", "url", "source", "author", "description",
		"published_at", "label", "confidence",
		"positive_score", "negative_score", "neutral_score", "analyzed_at",
	).Values(
		art.ID, art.Keyword, art.Title, art.URL, art.Source, art.Author, art.Description,
		art.PublishedAt.Unix(), string(art.Result.Label), art.Result.Confidence,
		art.Result.Scores.Positive, art.Result.Scores.Negative, art.Result.Scores.Neutral,
		art.AnalyzedAt.Unix(),
	)
}

func windowPredicate(keyword string, since, until time.Time) sq.Sqlizer {
	pred := sq.And{
		sq.GtOrEq{"analyzed_at": since.Unix()},
		sq.Lt{"analyzed_at": until.Unix()},
	}
	if keyword != "" {
		pred = append(pred, sq.Eq{"keyword": keyword})
	}
	return pred
}

func scanRecord(rows *sql.Rows) (model.HistoryRecord, error) {
	var rec model.HistoryRecord
	var label string
	var publishedAt, analyzedAt int64

	err := rows.Scan(
		&rec.Seq, &rec.ID, &rec.Keyword, &rec.Title, &rec.URL,
		&rec.Source, &rec.Author, &rec.Description, &publishedAt,
		&label, &rec.Result.Confidence,
		&rec.Result.Scores.Positive, &rec.Result.Scores.Negative, &rec.Result.Scores.Neutral,
		&analyzedAt,
	)
	if err != nil {
		return model.HistoryRecord{}, fmt.Errorf("scan record: %w", err)
	}

	rec.Result.Label = model.Label(label)
	rec.PublishedAt = time.Unix(publishedAt, 0).UTC()
	rec.AnalyzedAt = time.Unix(analyzedAt, 0).UTC()
	return rec, nil
}

// isUniqueViolation matches the sqlite UNIQUE constraint error for
// the id column.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
