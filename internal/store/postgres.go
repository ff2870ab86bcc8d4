package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores artifacts in a single table keyed by (run_id, slot). The
// upsert keeps slot writes atomic: a row either holds the previous payload
// or the full new one.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate creates the artifacts table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS run_artifacts (
			run_id     UUID        NOT NULL,
			slot       TEXT        NOT NULL,
			payload    JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (run_id, slot)
		)`)
	if err != nil {
		return fmt.Errorf("failed to migrate run_artifacts: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Read returns the stored payload or ErrNotFound.
func (p *Postgres) Read(ctx context.Context, runID uuid.UUID, slot string) ([]byte, error) {
	var payload []byte
	err := p.pool.QueryRow(ctx,
		`SELECT payload FROM run_artifacts WHERE run_id = $1 AND slot = $2`,
		runID, slot,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return payload, nil
}

// Write upserts the payload for the slot.
func (p *Postgres) Write(ctx context.Context, runID uuid.UUID, slot string, data []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO run_artifacts (run_id, slot, payload)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, slot) DO UPDATE SET payload = $3, updated_at = NOW()`,
		runID, slot, data,
	)
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	return nil
}

// Delete removes the slot row.
func (p *Postgres) Delete(ctx context.Context, runID uuid.UUID, slot string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM run_artifacts WHERE run_id = $1 AND slot = $2`,
		runID, slot,
	)
	if err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", slot, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Slots lists present slot names for a run.
func (p *Postgres) Slots(ctx context.Context, runID uuid.UUID) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT slot FROM run_artifacts WHERE run_id = $1 ORDER BY slot`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Runs lists run ids with at least one stored slot, oldest first.
func (p *Postgres) Runs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT run_id FROM run_artifacts GROUP BY run_id ORDER BY MIN(created_at)`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
