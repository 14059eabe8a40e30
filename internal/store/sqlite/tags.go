package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
)

// Tags are keyed by Readwise's tag id and carry no version history: a tag id
// seen before is left untouched, a new one is inserted.

const bookTagColumns = `id, name, user_book_id, batch_id, validated, validation_errors`

const highlightTagColumns = `id, name, highlight_id, batch_id, validated, validation_errors`

// insertBookTag writes a book tag if its id is new. Returns whether a row was
// inserted.
func insertBookTag(ctx context.Context, q dbtx, t *domain.BookTag, batchID int64) (bool, error) {
	errsJSON, err := marshalErrors(t.ValidationErrors)
	if err != nil {
		return false, err
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO book_tags (`+bookTagColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		t.ID,
		nullableString(t.Name),
		t.UserBookID,
		batchID,
		t.Validated,
		errsJSON,
	)
	if err != nil {
		return false, fmt.Errorf("insert book tag %d: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// insertHighlightTag writes a highlight tag if its id is new. Returns whether
// a row was inserted.
func insertHighlightTag(ctx context.Context, q dbtx, t *domain.HighlightTag, batchID int64) (bool, error) {
	errsJSON, err := marshalErrors(t.ValidationErrors)
	if err != nil {
		return false, err
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO highlight_tags (`+highlightTagColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		t.ID,
		nullableString(t.Name),
		t.HighlightID,
		batchID,
		t.Validated,
		errsJSON,
	)
	if err != nil {
		return false, fmt.Errorf("insert highlight tag %d: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListBookTags returns the tags attached to a book, ordered by id.
func (s *Store) ListBookTags(ctx context.Context, userBookID int64) ([]*domain.BookTag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookTagColumns+` FROM book_tags WHERE user_book_id = ? ORDER BY id ASC`,
		userBookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.BookTag
	for rows.Next() {
		var t domain.BookTag
		var name sql.NullString
		var errsJSON string
		if err := rows.Scan(&t.ID, &name, &t.UserBookID, &t.BatchID, &t.Validated, &errsJSON); err != nil {
			return nil, err
		}
		t.Name = strPtr(name)
		if t.ValidationErrors, err = unmarshalErrors(errsJSON); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.BookTag{}
	}
	return tags, nil
}

// ListHighlightTags returns the tags attached to a highlight, ordered by id.
func (s *Store) ListHighlightTags(ctx context.Context, highlightID int64) ([]*domain.HighlightTag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+highlightTagColumns+` FROM highlight_tags WHERE highlight_id = ? ORDER BY id ASC`,
		highlightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.HighlightTag
	for rows.Next() {
		var t domain.HighlightTag
		var name sql.NullString
		var errsJSON string
		if err := rows.Scan(&t.ID, &name, &t.HighlightID, &t.BatchID, &t.Validated, &errsJSON); err != nil {
			return nil, err
		}
		t.Name = strPtr(name)
		if t.ValidationErrors, err = unmarshalErrors(errsJSON); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.HighlightTag{}
	}
	return tags, nil
}
