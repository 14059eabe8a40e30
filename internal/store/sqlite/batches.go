package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
	"github.com/chrisbillows/readwise-local-plus/internal/store"
)

const batchColumns = `id, start_time, end_time, database_write_time`

func scanBatch(scanner interface{ Scan(dest ...any) error }) (*domain.Batch, error) {
	var b domain.Batch

	var (
		startTime, endTime string
		writeTime          sql.NullString
	)

	err := scanner.Scan(&b.ID, &startTime, &endTime, &writeTime)
	if err != nil {
		return nil, err
	}

	b.StartTime, err = parseTime(startTime)
	if err != nil {
		return nil, err
	}
	b.EndTime, err = parseTime(endTime)
	if err != nil {
		return nil, err
	}
	b.DatabaseWriteTime, err = parseNullableTime(writeTime)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// GetBatch retrieves one batch record.
// Returns store.ErrNotFound if the batch does not exist.
func (s *Store) GetBatch(ctx context.Context, id int64) (*domain.Batch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM readwise_batches WHERE id = ?`, id)

	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBatches returns every batch, oldest first. Batches with a NULL
// database_write_time never committed their writes.
func (s *Store) ListBatches(ctx context.Context) ([]*domain.Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+batchColumns+` FROM readwise_batches ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*domain.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if batches == nil {
		batches = []*domain.Batch{}
	}
	return batches, nil
}

// insertBatch opens a batch record with its fetch window. database_write_time
// stays NULL until the sync transaction's final step.
func insertBatch(ctx context.Context, q dbtx, start, end time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO readwise_batches (start_time, end_time)
		VALUES (?, ?)`,
		formatTime(start),
		formatTime(end),
	)
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("batch last insert id: %w", err)
	}
	return id, nil
}

// LastFetch returns the watermark of the last successful fetch, or nil if no
// sync has ever completed.
func (s *Store) LastFetch(ctx context.Context) (*time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_successful_fetch FROM readwise_last_fetch WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, fmt.Errorf("parse last fetch watermark: %w", err)
	}
	return &t, nil
}

// setLastFetch advances the singleton watermark row. Runs inside the sync
// transaction so the watermark only moves when the batch commits.
func setLastFetch(ctx context.Context, q dbtx, t time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO readwise_last_fetch (id, last_successful_fetch)
		VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_successful_fetch = excluded.last_successful_fetch`,
		formatTime(t),
	)
	if err != nil {
		return fmt.Errorf("set last fetch watermark: %w", err)
	}
	return nil
}
