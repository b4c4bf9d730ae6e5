package history

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"classpublisher/internal/domain"
	"classpublisher/internal/infra"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store persists publish-run audit records in Postgres.
type Store struct {
	pool   *pgxpool.Pool
	logger infra.Logger
}

// NewStore wires a pgx pool.
func NewStore(pool *pgxpool.Pool, logger infra.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// EnsureSchema creates the publish_runs table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS publish_runs (
    id          UUID PRIMARY KEY,
    day_number  SMALLINT NOT NULL,
    video_id    TEXT NOT NULL DEFAULT '',
    post_id     INTEGER NOT NULL DEFAULT 0,
    status      TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
);`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure publish_runs schema: %w", err)
	}
	return nil
}

// RecordRun inserts one run record.
func (s *Store) RecordRun(ctx context.Context, record domain.RunRecord) error {
	query, args, err := builder.
		Insert("publish_runs").
		Columns("id", "day_number", "video_id", "post_id", "status", "error", "started_at", "finished_at").
		Values(record.ID, int(record.Day), record.VideoID, record.PostID, string(record.Status), record.Error, record.StartedAt, record.FinishedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert publish run: %w", err)
	}
	s.logger.Debug().Str("run_id", record.ID).Str("status", string(record.Status)).Msg("history: run recorded")
	return nil
}

// RecentRuns returns the newest n run records, newest first.
func (s *Store) RecentRuns(ctx context.Context, n int) ([]domain.RunRecord, error) {
	if n <= 0 {
		n = 20
	}
	query, args, err := builder.
		Select("id", "day_number", "video_id", "post_id", "status", "error", "started_at", "finished_at").
		From("publish_runs").
		OrderBy("started_at DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publish runs: %w", err)
	}
	defer rows.Close()

	var records []domain.RunRecord
	for rows.Next() {
		var record domain.RunRecord
		var day int
		var status string
		if err := rows.Scan(&record.ID, &day, &record.VideoID, &record.PostID, &status, &record.Error, &record.StartedAt, &record.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan publish run: %w", err)
		}
		record.Day = domain.DayNumber(day)
		record.Status = domain.RunStatus(status)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publish runs: %w", err)
	}
	return records, nil
}
