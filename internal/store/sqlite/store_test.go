package sqlite

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strp(s string) *string  { return &s }
func boolp(b bool) *bool     { return &b }
func i64p(v int64) *int64    { return &v }
func timep(t time.Time) *time.Time { return &t }

// testBook builds a valid book entity with distinguishable content.
func testBook(userBookID int64, title string) *domain.Book {
	return &domain.Book{
		UserBookID:    userBookID,
		Title:         strp(title),
		Author:        strp("Ursula K. Le Guin"),
		ReadableTitle: strp(title),
		Source:        strp("kindle"),
		Category:      strp("books"),
		ReadwiseURL:   strp("https://readwise.io/bookreview/1"),
		IsDeleted:     boolp(false),
		Validated:     true,
	}
}

// testHighlight builds a valid highlight entity attached to a book.
func testHighlight(id, bookID int64, text string) *domain.Highlight {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return &domain.Highlight{
		ID:            id,
		BookID:        bookID,
		Text:          strp(text),
		Location:      i64p(1042),
		HighlightedAt: timep(at),
		IsFavorite:    boolp(false),
		IsDiscard:     boolp(false),
		IsDeleted:     boolp(false),
		Validated:     true,
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	err = s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	tables := []string{
		"books", "book_tags", "highlights", "highlight_tags",
		"book_versions", "highlight_versions",
		"readwise_batches", "readwise_last_fetch",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()
}
