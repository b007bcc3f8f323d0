package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the archive in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	cap  int
}

func NewPostgresStore(ctx context.Context, databaseURL string, cap int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, cap: normalizeCap(cap)}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS archive_entries (
			id BIGSERIAL PRIMARY KEY,
			algorithm TEXT NOT NULL,
			mode TEXT NOT NULL CHECK (mode IN ('text', 'image', 'audio')),
			length INTEGER NOT NULL,
			trace TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_archive_entries_created ON archive_entries (created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO archive_entries (algorithm, mode, length, trace, created_at)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			e.Algorithm, e.Mode, e.Length, e.Trace, e.Timestamp,
		).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}

		_, err = tx.Exec(ctx,
			`DELETE FROM archive_entries WHERE id NOT IN
			 (SELECT id FROM archive_entries ORDER BY id DESC LIMIT $1)`,
			s.cap,
		)
		if err != nil {
			return fmt.Errorf("evict entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, algorithm, mode, length, trace, created_at
		 FROM archive_entries ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Algorithm, &e.Mode, &e.Length, &e.Trace, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive rows: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(entries, now), nil
}

// Clear deletes rows but leaves the id sequence alone.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM archive_entries`); err != nil {
		return fmt.Errorf("clear archive: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
