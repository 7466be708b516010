// Package storage persists verdicts in a process-local sqlite database,
// the same schema the scoring pipeline has always used.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"FeedAnnotator/internal/domain"
	"FeedAnnotator/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS article_scores (
    article_id TEXT PRIMARY KEY,
    score      REAL,
    verdict    TEXT,
    reason     TEXT,
    summary    TEXT,
    title      TEXT,
    url        TEXT,
    updated_at TIMESTAMP
)`

// SQLiteRepository implements ports.VerdictStore on a local sqlite file.
type SQLiteRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.VerdictStore = (*SQLiteRepository)(nil)

// Open connects to (and initializes) the database at path.
func Open(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteRepository{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Get loads a single verdict by identity.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (domain.Verdict, bool, error) {
	verdicts, err := r.GetMany(ctx, []string{id})
	if err != nil {
		return domain.Verdict{}, false, err
	}
	v, ok := verdicts[id]
	return v, ok, nil
}

// GetMany loads verdicts for the requested identities; absent ids are
// simply missing from the result map.
func (r *SQLiteRepository) GetMany(ctx context.Context, ids []string) (map[string]domain.Verdict, error) {
	result := make(map[string]domain.Verdict, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := r.sb.
		Select("article_id", "score", "verdict", "reason", "summary", "updated_at").
		From("article_scores").
		Where(sq.Eq{"article_id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v         domain.Verdict
			score     sql.NullFloat64
			label     sql.NullString
			reason    sql.NullString
			summary   sql.NullString
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&v.ID, &score, &label, &reason, &summary, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}

		v.Found = true
		if score.Valid {
			value := score.Float64
			v.Score = &value
		}
		v.Label = label.String
		v.Reason = reason.String
		v.Summary = summary.String
		if updatedAt.Valid {
			v.UpdatedAt = updatedAt.Time
		}

		result[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// Save upserts the verdict snapshot.
func (r *SQLiteRepository) Save(ctx context.Context, v domain.Verdict, title, url string) error {
	var score any
	if v.Score != nil {
		score = *v.Score
	}

	updatedAt := v.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query, args, err := r.sb.
		Insert("article_scores").
		Columns("article_id", "score", "verdict", "reason", "summary", "title", "url", "updated_at").
		Values(v.ID, score, v.Label, v.Reason, v.Summary, title, url, updatedAt).
		Suffix(`ON CONFLICT(article_id) DO UPDATE SET
            score = excluded.score,
            verdict = excluded.verdict,
            reason = excluded.reason,
            summary = excluded.summary,
            title = CASE WHEN excluded.title != '' THEN excluded.title ELSE article_scores.title END,
            url = CASE WHEN excluded.url != '' THEN excluded.url ELSE article_scores.url END,
            updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert verdict %s: %w", v.ID, err)
	}
	return nil
}

// SaveMeta updates display metadata for an already-known article without
// touching its verdict.
func (r *SQLiteRepository) SaveMeta(ctx context.Context, id, title, url string) error {
	builder := r.sb.Update("article_scores").Where(sq.Eq{"article_id": id})
	if title != "" {
		builder = builder.Set("title", title)
	}
	if url != "" {
		builder = builder.Set("url", url)
	}
	if title == "" && url == "" {
		return nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build meta update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update meta %s: %w", id, err)
	}
	return nil
}

// SaveSummary stores the long-form summary for an article, creating the
// row when the article has never been scored.
func (r *SQLiteRepository) SaveSummary(ctx context.Context, id, summary string) error {
	query, args, err := r.sb.
		Insert("article_scores").
		Columns("article_id", "summary", "updated_at").
		Values(id, summary, time.Now()).
		Suffix(`ON CONFLICT(article_id) DO UPDATE SET
            summary = excluded.summary,
            updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build summary upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert summary %s: %w", id, err)
	}
	return nil
}
