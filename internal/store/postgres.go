// Package store persists voice metadata records in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/autovid/voice-generator/internal/core"
)

const createVoicesTableSQL = `
CREATE TABLE IF NOT EXISTS voices (
	job_id        TEXT             NOT NULL,
	segment_index INTEGER          NOT NULL,
	type          TEXT             NOT NULL,
	url           TEXT             NOT NULL,
	duration      DOUBLE PRECISION,
	format        TEXT,
	size          BIGINT,
	created_at    TIMESTAMPTZ      NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (job_id, segment_index)
)`

// The upsert makes redelivered jobs converge on a single row per
// (job_id, segment_index): last write wins.
const upsertVoiceSQL = `
INSERT INTO voices (job_id, segment_index, type, url, duration, format, size, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (job_id, segment_index) DO UPDATE SET
	type       = EXCLUDED.type,
	url        = EXCLUDED.url,
	duration   = EXCLUDED.duration,
	format     = EXCLUDED.format,
	size       = EXCLUDED.size,
	updated_at = now()`

// PostgresVoiceRepository implements core.VoiceRepository on a PostgreSQL
// connection pool.
type PostgresVoiceRepository struct {
	db *sql.DB
}

// NewPostgresVoiceRepository wraps an open database handle.
func NewPostgresVoiceRepository(db *sql.DB) *PostgresVoiceRepository {
	return &PostgresVoiceRepository{db: db}
}

// EnsureSchema creates the voices table if it does not exist.
func (r *PostgresVoiceRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createVoicesTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create voices table: %w", err)
	}

	return nil
}

// SaveVoice records one stored audio artifact, replacing any previous
// record for the same (job_id, segment_index).
func (r *PostgresVoiceRepository) SaveVoice(ctx context.Context, rec core.VoiceRecord) error {
	_, err := r.db.ExecContext(ctx, upsertVoiceSQL,
		rec.JobID,
		rec.Index,
		rec.Type,
		rec.URL,
		rec.Duration,
		rec.Format,
		rec.Size,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save voice record for job %s segment %d: %w",
			rec.JobID, rec.Index, err)
	}

	return nil
}
