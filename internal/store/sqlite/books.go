package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
	"github.com/chrisbillows/readwise-local-plus/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `user_book_id, title, author, readable_title, source,
	cover_image_url, unique_url, summary, category, document_note,
	readwise_url, source_url, external_id, asin, is_deleted, batch_id,
	validated, validation_errors`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		title, author, readableTitle, source  sql.NullString
		coverImageURL, uniqueURL, summary     sql.NullString
		category, documentNote, readwiseURL   sql.NullString
		sourceURL, externalID, asin           sql.NullString
		isDeleted                             sql.NullBool
		validationErrors                      string
	)

	err := scanner.Scan(
		&b.UserBookID,
		&title,
		&author,
		&readableTitle,
		&source,
		&coverImageURL,
		&uniqueURL,
		&summary,
		&category,
		&documentNote,
		&readwiseURL,
		&sourceURL,
		&externalID,
		&asin,
		&isDeleted,
		&b.BatchID,
		&b.Validated,
		&validationErrors,
	)
	if err != nil {
		return nil, err
	}

	b.Title = strPtr(title)
	b.Author = strPtr(author)
	b.ReadableTitle = strPtr(readableTitle)
	b.Source = strPtr(source)
	b.CoverImageURL = strPtr(coverImageURL)
	b.UniqueURL = strPtr(uniqueURL)
	b.Summary = strPtr(summary)
	b.Category = strPtr(category)
	b.DocumentNote = strPtr(documentNote)
	b.ReadwiseURL = strPtr(readwiseURL)
	b.SourceURL = strPtr(sourceURL)
	b.ExternalID = strPtr(externalID)
	b.ASIN = strPtr(asin)
	b.IsDeleted = boolPtr(isDeleted)
	b.ValidationErrors, err = unmarshalErrors(validationErrors)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// GetBook retrieves a book by its user_book_id.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, userBookID int64) (*domain.Book, error) {
	return getBook(ctx, s.db, userBookID)
}

func getBook(ctx context.Context, q dbtx, userBookID int64) (*domain.Book, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE user_book_id = ?`, userBookID)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks returns all books ordered by user_book_id.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY user_book_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}

// insertBook writes a new book row tagged with the writing batch.
func insertBook(ctx context.Context, q dbtx, b *domain.Book, batchID int64) error {
	errsJSON, err := marshalErrors(b.ValidationErrors)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserBookID,
		nullableString(b.Title),
		nullableString(b.Author),
		nullableString(b.ReadableTitle),
		nullableString(b.Source),
		nullableString(b.CoverImageURL),
		nullableString(b.UniqueURL),
		nullableString(b.Summary),
		nullableString(b.Category),
		nullableString(b.DocumentNote),
		nullableString(b.ReadwiseURL),
		nullableString(b.SourceURL),
		nullableString(b.ExternalID),
		nullableString(b.ASIN),
		nullableBool(b.IsDeleted),
		batchID,
		b.Validated,
		errsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert book %d: %w", b.UserBookID, err)
	}
	return nil
}

// updateBook overwrites the live row with the incoming state.
func updateBook(ctx context.Context, q dbtx, b *domain.Book, batchID int64) error {
	errsJSON, err := marshalErrors(b.ValidationErrors)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		UPDATE books SET
			title = ?, author = ?, readable_title = ?, source = ?,
			cover_image_url = ?, unique_url = ?, summary = ?, category = ?,
			document_note = ?, readwise_url = ?, source_url = ?,
			external_id = ?, asin = ?, is_deleted = ?, batch_id = ?,
			validated = ?, validation_errors = ?
		WHERE user_book_id = ?`,
		nullableString(b.Title),
		nullableString(b.Author),
		nullableString(b.ReadableTitle),
		nullableString(b.Source),
		nullableString(b.CoverImageURL),
		nullableString(b.UniqueURL),
		nullableString(b.Summary),
		nullableString(b.Category),
		nullableString(b.DocumentNote),
		nullableString(b.ReadwiseURL),
		nullableString(b.SourceURL),
		nullableString(b.ExternalID),
		nullableString(b.ASIN),
		nullableBool(b.IsDeleted),
		batchID,
		b.Validated,
		errsJSON,
		b.UserBookID,
	)
	if err != nil {
		return fmt.Errorf("update book %d: %w", b.UserBookID, err)
	}
	return nil
}

// snapshotBook appends the superseded row to book_versions before it is
// overwritten. The snapshot keeps the old row's batch_id; versioningBatchID
// records which sync replaced it.
func snapshotBook(ctx context.Context, q dbtx, old *domain.Book, versioningBatchID int64, at time.Time) error {
	var prev int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM book_versions WHERE user_book_id = ?`,
		old.UserBookID).Scan(&prev)
	if err != nil {
		return fmt.Errorf("max book version %d: %w", old.UserBookID, err)
	}

	errsJSON, err := marshalErrors(old.ValidationErrors)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO book_versions (version, versioned_at, batch_id_when_versioned, `+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		prev+1,
		formatTime(at),
		versioningBatchID,
		old.UserBookID,
		nullableString(old.Title),
		nullableString(old.Author),
		nullableString(old.ReadableTitle),
		nullableString(old.Source),
		nullableString(old.CoverImageURL),
		nullableString(old.UniqueURL),
		nullableString(old.Summary),
		nullableString(old.Category),
		nullableString(old.DocumentNote),
		nullableString(old.ReadwiseURL),
		nullableString(old.SourceURL),
		nullableString(old.ExternalID),
		nullableString(old.ASIN),
		nullableBool(old.IsDeleted),
		old.BatchID,
		old.Validated,
		errsJSON,
	)
	if err != nil {
		return fmt.Errorf("snapshot book %d: %w", old.UserBookID, err)
	}
	return nil
}

// ListBookVersions returns a book's version history, oldest first.
func (s *Store) ListBookVersions(ctx context.Context, userBookID int64) ([]*domain.BookVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version_id, version, versioned_at, batch_id_when_versioned, `+bookColumns+`
		FROM book_versions WHERE user_book_id = ? ORDER BY version ASC`, userBookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*domain.BookVersion
	for rows.Next() {
		v, err := scanBookVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if versions == nil {
		versions = []*domain.BookVersion{}
	}
	return versions, nil
}

func scanBookVersion(rows *sql.Rows) (*domain.BookVersion, error) {
	var v domain.BookVersion

	var (
		versionedAt                           string
		title, author, readableTitle, source  sql.NullString
		coverImageURL, uniqueURL, summary     sql.NullString
		category, documentNote, readwiseURL   sql.NullString
		sourceURL, externalID, asin           sql.NullString
		isDeleted                             sql.NullBool
		validationErrors                      string
	)

	err := rows.Scan(
		&v.VersionID,
		&v.Version,
		&versionedAt,
		&v.BatchIDWhenVersioned,
		&v.UserBookID,
		&title,
		&author,
		&readableTitle,
		&source,
		&coverImageURL,
		&uniqueURL,
		&summary,
		&category,
		&documentNote,
		&readwiseURL,
		&sourceURL,
		&externalID,
		&asin,
		&isDeleted,
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
	v.Title = strPtr(title)
	v.Author = strPtr(author)
	v.ReadableTitle = strPtr(readableTitle)
	v.Source = strPtr(source)
	v.CoverImageURL = strPtr(coverImageURL)
	v.UniqueURL = strPtr(uniqueURL)
	v.Summary = strPtr(summary)
	v.Category = strPtr(category)
	v.DocumentNote = strPtr(documentNote)
	v.ReadwiseURL = strPtr(readwiseURL)
	v.SourceURL = strPtr(sourceURL)
	v.ExternalID = strPtr(externalID)
	v.ASIN = strPtr(asin)
	v.IsDeleted = boolPtr(isDeleted)
	v.ValidationErrors, err = unmarshalErrors(validationErrors)
	if err != nil {
		return nil, err
	}

	return &v, nil
}
