package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
)

// flattenFixture builds one validated book carrying a book tag and two
// highlights, the first of which is tagged.
func flattenFixture() []domain.Record {
	book := nestedBook(1)
	book["book_tags"] = []any{map[string]any{"id": int64(10), "name": "sf"}}
	tagged := nestedHighlight(100, 1)
	tagged["tags"] = []any{map[string]any{"id": int64(500), "name": "opening-lines"}}
	book["highlights"] = []any{tagged, nestedHighlight(101, 1)}
	return ValidateNested([]domain.Record{book})
}

func TestFlattenSplitsObjectTypes(t *testing.T) {
	flat := Flatten(flattenFixture())

	assert.Len(t, flat.Books, 1)
	assert.Len(t, flat.BookTags, 1)
	assert.Len(t, flat.Highlights, 2)
	assert.Len(t, flat.HighlightTags, 1)
}

func TestFlattenStripsChildCollections(t *testing.T) {
	flat := Flatten(flattenFixture())

	book := flat.Books[0]
	assert.NotContains(t, book, "highlights")
	assert.NotContains(t, book, "book_tags")

	for _, h := range flat.Highlights {
		assert.NotContains(t, h, "tags")
	}
}

func TestFlattenAttachesParentKeys(t *testing.T) {
	flat := Flatten(flattenFixture())

	assert.EqualValues(t, 1, flat.BookTags[0]["user_book_id"])
	for _, h := range flat.Highlights {
		assert.EqualValues(t, 1, h["book_id"])
	}
	require.Len(t, flat.HighlightTags, 1)
	assert.EqualValues(t, 100, flat.HighlightTags[0]["highlight_id"])
}

func TestFlattenPreservesValidationMetadata(t *testing.T) {
	books := flattenFixture()
	books[0].Invalidate("title", "must be a string")

	flat := Flatten(books)

	assert.False(t, flat.Books[0].Validated())
	assert.Equal(t, "must be a string", flat.Books[0].ValidationErrors()["title"])
}

func TestFlattenEmptyInput(t *testing.T) {
	flat := Flatten(nil)

	assert.Empty(t, flat.Books)
	assert.Empty(t, flat.BookTags)
	assert.Empty(t, flat.Highlights)
	assert.Empty(t, flat.HighlightTags)
}
