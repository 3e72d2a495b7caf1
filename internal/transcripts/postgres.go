package transcripts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists transcript records in PostgreSQL. Supabase exposes
// its database directly, so this store works against both a plain Postgres
// and a Supabase project.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS call_transcripts (
			id UUID PRIMARY KEY,
			vapi_call_id TEXT NOT NULL,
			interview_series_id TEXT NOT NULL DEFAULT '',
			transcript JSONB,
			summary TEXT NOT NULL DEFAULT '',
			key_insights TEXT[] NOT NULL DEFAULT '{}',
			action_items TEXT[] NOT NULL DEFAULT '{}',
			context_summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_call_transcripts_series_created
			ON call_transcripts (interview_series_id, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, record Record) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	var transcript []byte
	if len(record.Transcript) > 0 {
		transcript = record.Transcript
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO call_transcripts
			(id, vapi_call_id, interview_series_id, transcript, summary, key_insights, action_items, context_summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID,
		record.VapiCallID,
		record.InterviewSeriesID,
		transcript,
		record.Summary,
		record.KeyInsights,
		record.ActionItems,
		record.ContextSummary,
		record.CreatedAt,
	)
	if err != nil {
		return "", &StoreError{Op: "insert transcript", Err: err}
	}
	return record.ID, nil
}

func (s *PostgresStore) LatestBySeries(ctx context.Context, seriesID string) (*Record, error) {
	var (
		r          Record
		transcript []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, vapi_call_id, interview_series_id, transcript, summary, key_insights, action_items, context_summary, created_at
		 FROM call_transcripts
		 WHERE interview_series_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		seriesID,
	).Scan(
		&r.ID,
		&r.VapiCallID,
		&r.InterviewSeriesID,
		&transcript,
		&r.Summary,
		&r.KeyInsights,
		&r.ActionItems,
		&r.ContextSummary,
		&r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "query latest transcript", Err: err}
	}
	r.Transcript = transcript
	return &r, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
