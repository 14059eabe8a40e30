package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
	"github.com/chrisbillows/readwise-local-plus/internal/store"
)

// highlightColumns is the ordered list of columns selected in highlight
// queries. Must match the scan order in scanHighlight.
const highlightColumns = `id, book_id, text, location, location_type, note,
	color, highlighted_at, created_at, updated_at, external_id, end_location,
	url, is_favorite, is_discard, is_deleted, readwise_url, batch_id,
	validated, validation_errors`

func scanHighlight(scanner interface{ Scan(dest ...any) error }) (*domain.Highlight, error) {
	var h domain.Highlight

	var (
		text, locationType, note, color     sql.NullString
		highlightedAt, createdAt, updatedAt sql.NullString
		externalID, url, readwiseURL        sql.NullString
		location, endLocation               sql.NullInt64
		isFavorite, isDiscard, isDeleted    sql.NullBool
		validationErrors                    string
	)

	err := scanner.Scan(
		&h.ID,
		&h.BookID,
		&text,
		&location,
		&locationType,
		&note,
		&color,
		&highlightedAt,
		&createdAt,
		&updatedAt,
		&externalID,
		&endLocation,
		&url,
		&isFavorite,
		&isDiscard,
		&isDeleted,
		&readwiseURL,
		&h.BatchID,
		&h.Validated,
		&validationErrors,
	)
	if err != nil {
		return nil, err
	}

	h.Text = strPtr(text)
	h.Location = intPtr(location)
	h.LocationType = strPtr(locationType)
	h.Note = strPtr(note)
	h.Color = strPtr(color)
	if h.HighlightedAt, err = parseNullableTime(highlightedAt); err != nil {
		return nil, err
	}
	if h.CreatedAt, err = parseNullableTime(createdAt); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseNullableTime(updatedAt); err != nil {
		return nil, err
	}
	h.ExternalID = strPtr(externalID)
	h.EndLocation = intPtr(endLocation)
	h.URL = strPtr(url)
	h.IsFavorite = boolPtr(isFavorite)
	h.IsDiscard = boolPtr(isDiscard)
	h.IsDeleted = boolPtr(isDeleted)
	h.ReadwiseURL = strPtr(readwiseURL)
	h.ValidationErrors, err = unmarshalErrors(validationErrors)
	if err != nil {
		return nil, err
	}

	return &h, nil
}

// GetHighlight retrieves a highlight by its id.
// Returns store.ErrNotFound if the highlight does not exist.
func (s *Store) GetHighlight(ctx context.Context, id int64) (*domain.Highlight, error) {
	return getHighlight(ctx, s.db, id)
}

func getHighlight(ctx context.Context, q dbtx, id int64) (*domain.Highlight, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+highlightColumns+` FROM highlights WHERE id = ?`, id)

	h, err := scanHighlight(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// ListHighlights returns all highlights ordered by id.
func (s *Store) ListHighlights(ctx context.Context) ([]*domain.Highlight, error) {
	return s.queryHighlights(ctx,
		`SELECT `+highlightColumns+` FROM highlights ORDER BY id ASC`)
}

// ListBookHighlights returns the highlights belonging to one book, ordered
// by id.
func (s *Store) ListBookHighlights(ctx context.Context, userBookID int64) ([]*domain.Highlight, error) {
	return s.queryHighlights(ctx,
		`SELECT `+highlightColumns+` FROM highlights WHERE book_id = ? ORDER BY id ASC`,
		userBookID)
}

func (s *Store) queryHighlights(ctx context.Context, query string, args ...any) ([]*domain.Highlight, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var highlights []*domain.Highlight
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		highlights = append(highlights, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if highlights == nil {
		highlights = []*domain.Highlight{}
	}
	return highlights, nil
}

func insertHighlight(ctx context.Context, q dbtx, h *domain.Highlight, batchID int64) error {
	errsJSON, err := marshalErrors(h.ValidationErrors)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO highlights (`+highlightColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID,
		h.BookID,
		nullableString(h.Text),
		nullableInt64(h.Location),
		nullableString(h.LocationType),
		nullableString(h.Note),
		nullableString(h.Color),
		nullTimeString(h.HighlightedAt),
		nullTimeString(h.CreatedAt),
		nullTimeString(h.UpdatedAt),
		nullableString(h.ExternalID),
		nullableInt64(h.EndLocation),
		nullableString(h.URL),
		nullableBool(h.IsFavorite),
		nullableBool(h.IsDiscard),
		nullableBool(h.IsDeleted),
		nullableString(h.ReadwiseURL),
		batchID,
		h.Validated,
		errsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert highlight %d: %w", h.ID, err)
	}
	return nil
}

func updateHighlight(ctx context.Context, q dbtx, h *domain.Highlight, batchID int64) error {
	errsJSON, err := marshalErrors(h.ValidationErrors)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		UPDATE highlights SET
			book_id = ?, text = ?, location = ?, location_type = ?, note = ?,
			color = ?, highlighted_at = ?, created_at = ?, updated_at = ?,
			external_id = ?, end_location = ?, url = ?, is_favorite = ?,
			is_discard = ?, is_deleted = ?, readwise_url = ?, batch_id = ?,
			validated = ?, validation_errors = ?
		WHERE id = ?`,
		h.BookID,
		nullableString(h.Text),
		nullableInt64(h.Location),
		nullableString(h.LocationType),
		nullableString(h.Note),
		nullableString(h.Color),
		nullTimeString(h.HighlightedAt),
		nullTimeString(h.CreatedAt),
		nullTimeString(h.UpdatedAt),
		nullableString(h.ExternalID),
		nullableInt64(h.EndLocation),
		nullableString(h.URL),
		nullableBool(h.IsFavorite),
		nullableBool(h.IsDiscard),
		nullableBool(h.IsDeleted),
		nullableString(h.ReadwiseURL),
		batchID,
		h.Validated,
		errsJSON,
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("update highlight %d: %w", h.ID, err)
	}
	return nil
}

// snapshotHighlight appends the superseded row to highlight_versions. The
// snapshot keeps the old row's batch_id; versioningBatchID records which sync
// replaced it.
func snapshotHighlight(ctx context.Context, q dbtx, old *domain.Highlight, versioningBatchID int64, at time.Time) error {
	var prev int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM highlight_versions WHERE id = ?`,
		old.ID).Scan(&prev)
	if err != nil {
		return fmt.Errorf("max highlight version %d: %w", old.ID, err)
	}

	errsJSON, err := marshalErrors(old.ValidationErrors)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO highlight_versions (version, versioned_at, batch_id_when_versioned, `+highlightColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		prev+1,
		formatTime(at),
		versioningBatchID,
		old.ID,
		old.BookID,
		nullableString(old.Text),
		nullableInt64(old.Location),
		nullableString(old.LocationType),
		nullableString(old.Note),
		nullableString(old.Color),
		nullTimeString(old.HighlightedAt),
		nullTimeString(old.CreatedAt),
		nullTimeString(old.UpdatedAt),
		nullableString(old.ExternalID),
		nullableInt64(old.EndLocation),
		nullableString(old.URL),
		nullableBool(old.IsFavorite),
		nullableBool(old.IsDiscard),
		nullableBool(old.IsDeleted),
		nullableString(old.ReadwiseURL),
		old.BatchID,
		old.Validated,
		errsJSON,
	)
	if err != nil {
		return fmt.Errorf("snapshot highlight %d: %w", old.ID, err)
	}
	return nil
}

// ListHighlightVersions returns a highlight's version history, oldest first.
func (s *Store) ListHighlightVersions(ctx context.Context, highlightID int64) ([]*domain.HighlightVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version_id, version, versioned_at, batch_id_when_versioned, `+highlightColumns+`
		FROM highlight_versions WHERE id = ? ORDER BY version ASC`, highlightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*domain.HighlightVersion
	for rows.Next() {
		v, err := scanHighlightVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if versions == nil {
		versions = []*domain.HighlightVersion{}
	}
	return versions, nil
}

func scanHighlightVersion(rows *sql.Rows) (*domain.HighlightVersion, error) {
	var v domain.HighlightVersion

	var (
		versionedAt                         string
		text, locationType, note, color     sql.NullString
		highlightedAt, createdAt, updatedAt sql.NullString
		externalID, url, readwiseURL        sql.NullString
		location, endLocation               sql.NullInt64
		isFavorite, isDiscard, isDeleted    sql.NullBool
		validationErrors                    string
	)

	err := rows.Scan(
		&v.VersionID,
		&v.Version,
		&versionedAt,
		&v.BatchIDWhenVersioned,
		&v.ID,
		&v.BookID,
		&text,
		&location,
		&locationType,
		&note,
		&color,
		&highlightedAt,
		&createdAt,
		&updatedAt,
		&externalID,
		&endLocation,
		&url,
		&isFavorite,
		&isDiscard,
		&isDeleted,
		&readwiseURL,
		&v.BatchID,
		&v.Validated,
		&validationErrors,
	)
	if err != nil {
		return nil, err
	}

	v.VersionedAt, err = parseTime(versionedAt)
	if err != nil {
		return nil, err
	}
	v.Text = strPtr(text)
	v.Location = intPtr(location)
	v.LocationType = strPtr(locationType)
	v.Note = strPtr(note)
	v.Color = strPtr(color)
	if v.HighlightedAt, err = parseNullableTime(highlightedAt); err != nil {
		return nil, err
	}
	if v.CreatedAt, err = parseNullableTime(createdAt); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = parseNullableTime(updatedAt); err != nil {
		return nil, err
	}
	v.ExternalID = strPtr(externalID)
	v.EndLocation = intPtr(endLocation)
	v.URL = strPtr(url)
	v.IsFavorite = boolPtr(isFavorite)
	v.IsDiscard = boolPtr(isDiscard)
	v.IsDeleted = boolPtr(isDeleted)
	v.ReadwiseURL = strPtr(readwiseURL)
	v.ValidationErrors, err = unmarshalErrors(validationErrors)
	if err != nil {
		return nil, err
	}

	return &v, nil
}
