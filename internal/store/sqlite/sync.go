package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
	"github.com/chrisbillows/readwise-local-plus/internal/store"
)

// ApplySync reconciles one fetch cycle's entities against the live tables in
// a single transaction: batch row, per-entity reconciliation, write-time
// stamp and watermark advance all commit or roll back together.
//
// Reconciliation policy per book/highlight:
//
//   - unseen primary key: insert
//   - seen, content identical: no-op
//   - seen, content changed: snapshot the old row to its versions table,
//     then overwrite the live row
//
// Tags insert-if-new by id and are never versioned. An empty set still opens
// a batch, stamps it, and advances the watermark to end, so an empty fetch
// window is never re-fetched.
func (s *Store) ApplySync(ctx context.Context, set *domain.SyncSet, start, end time.Time) (*domain.SyncResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sync transaction: %w", err)
	}
	defer tx.Rollback()

	batchID, err := insertBatch(ctx, tx, start, end)
	if err != nil {
		return nil, err
	}

	result := &domain.SyncResult{BatchID: batchID}
	now := time.Now().UTC()

	// Parents before children: book_tags and highlights reference books,
	// highlight_tags reference highlights.
	for _, b := range set.Books {
		if err := reconcileBook(ctx, tx, b, batchID, now, result); err != nil {
			return nil, err
		}
	}
	for _, h := range set.Highlights {
		if err := reconcileHighlight(ctx, tx, h, batchID, now, result); err != nil {
			return nil, err
		}
	}
	for _, t := range set.BookTags {
		inserted, err := insertBookTag(ctx, tx, t, batchID)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.BookTagsInserted++
		}
	}
	for _, t := range set.HighlightTags {
		inserted, err := insertHighlightTag(ctx, tx, t, batchID)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.HighlightTagsInserted++
		}
	}

	// Stamping the write time is the batch's commit signal: a row with a
	// NULL database_write_time never finished.
	writeTime := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE readwise_batches SET database_write_time = ? WHERE id = ?`,
		formatTime(writeTime), batchID); err != nil {
		return nil, fmt.Errorf("stamp batch write time: %w", err)
	}

	if err := setLastFetch(ctx, tx, end); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sync transaction: %w", err)
	}

	result.WriteTime = writeTime
	return result, nil
}

func reconcileBook(ctx context.Context, q dbtx, b *domain.Book, batchID int64, now time.Time, result *domain.SyncResult) error {
	existing, err := getBook(ctx, q, b.UserBookID)
	if errors.Is(err, store.ErrNotFound) {
		if err := insertBook(ctx, q, b, batchID); err != nil {
			return err
		}
		result.BooksInserted++
		return nil
	}
	if err != nil {
		return fmt.Errorf("load book %d: %w", b.UserBookID, err)
	}

	if existing.ContentEquals(b) {
		result.BooksUnchanged++
		return nil
	}

	if err := snapshotBook(ctx, q, existing, batchID, now); err != nil {
		return err
	}
	if err := updateBook(ctx, q, b, batchID); err != nil {
		return err
	}
	result.BooksVersioned++
	return nil
}

func reconcileHighlight(ctx context.Context, q dbtx, h *domain.Highlight, batchID int64, now time.Time, result *domain.SyncResult) error {
	existing, err := getHighlight(ctx, q, h.ID)
	if errors.Is(err, store.ErrNotFound) {
		if err := insertHighlight(ctx, q, h, batchID); err != nil {
			return err
		}
		result.HighlightsInserted++
		return nil
	}
	if err != nil {
		return fmt.Errorf("load highlight %d: %w", h.ID, err)
	}

	if existing.ContentEquals(h) {
		result.HighlightsUnchanged++
		return nil
	}

	if err := snapshotHighlight(ctx, q, existing, batchID, now); err != nil {
		return err
	}
	if err := updateHighlight(ctx, q, h, batchID); err != nil {
		return err
	}
	result.HighlightsVersioned++
	return nil
}
