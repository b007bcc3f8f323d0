package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lazypower/ephemeral/internal/archive"
)

// Archive is the SQLite-backed archive.Store.
type Archive struct {
	db  *DB
	cap int
}

var _ archive.Store = (*Archive)(nil)

// Archive returns a store over db keeping at most cap entries (DefaultCap
// when cap <= 0). Closing it closes db.
func (db *DB) Archive(cap int) *Archive {
	if cap <= 0 {
		cap = archive.DefaultCap
	}
	return &Archive{db: db, cap: cap}
}

func (a *Archive) Append(ctx context.Context, e archive.Entry) (archive.Entry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Timestamp = e.Timestamp.Truncate(time.Millisecond)

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return archive.Entry{}, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO archive_entries (algorithm, mode, length, trace, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Algorithm, e.Mode, e.Length, e.Trace, e.Timestamp.UnixMilli())
	if err != nil {
		return archive.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return archive.Entry{}, fmt.Errorf("entry id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM archive_entries WHERE id NOT IN
		(SELECT id FROM archive_entries ORDER BY id DESC LIMIT ?)
	`, a.cap); err != nil {
		return archive.Entry{}, fmt.Errorf("evict entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return archive.Entry{}, fmt.Errorf("commit append: %w", err)
	}
	return e, nil
}

func (a *Archive) List(ctx context.Context) ([]archive.Entry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, algorithm, mode, length, trace, created_at
		FROM archive_entries ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var entries []archive.Entry
	for rows.Next() {
		var e archive.Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.Algorithm, &e.Mode, &e.Length, &e.Trace, &created); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		e.Timestamp = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (a *Archive) Stats(ctx context.Context, now time.Time) (archive.Stats, error) {
	entries, err := a.List(ctx)
	if err != nil {
		return archive.Stats{}, err
	}
	return archive.ComputeStats(entries, now), nil
}

// Clear deletes every entry. AUTOINCREMENT keeps sqlite_sequence, so ids are
// not reused afterwards.
func (a *Archive) Clear(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, "DELETE FROM archive_entries"); err != nil {
		return fmt.Errorf("clear archive: %w", err)
	}
	return nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}
