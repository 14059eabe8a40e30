package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
)

// nestedBook returns a well-formed raw export book the way the API nests it,
// before any validation has run.
func nestedBook(userBookID int64) domain.Record {
	return domain.Record{
		"user_book_id": userBookID,
		"title":        "The Dispossessed",
		"book_tags":    []any{},
		"highlights":   []any{},
	}
}

func nestedHighlight(id, bookID int64) map[string]any {
	return map[string]any{
		"id":      id,
		"book_id": bookID,
		"text":    "There was a wall.",
		"tags":    []any{},
	}
}

func TestValidateNestedStampsEveryObject(t *testing.T) {
	book := nestedBook(1)
	book["highlights"] = []any{nestedHighlight(100, 1)}
	book["book_tags"] = []any{map[string]any{"id": int64(10), "name": "sf"}}

	out := ValidateNested([]domain.Record{book})
	require.Len(t, out, 1)

	assert.True(t, out[0].Validated())
	assert.Empty(t, out[0].ValidationErrors())

	highlights := out[0]["highlights"].([]domain.Record)
	require.Len(t, highlights, 1)
	assert.True(t, highlights[0].Validated())

	tags := out[0]["book_tags"].([]domain.Record)
	require.Len(t, tags, 1)
	assert.True(t, tags[0].Validated())
}

func TestValidateNestedAddsMissingCollections(t *testing.T) {
	book := domain.Record{"user_book_id": int64(1), "title": "No Children"}

	out := ValidateNested([]domain.Record{book})
	require.Len(t, out, 1)

	assert.False(t, out[0].Validated())
	errs := out[0].ValidationErrors()
	assert.Contains(t, errs, "highlights")
	assert.Contains(t, errs, "book_tags")

	assert.Empty(t, out[0]["highlights"].([]domain.Record))
	assert.Empty(t, out[0]["book_tags"].([]domain.Record))
}

func TestValidateNestedReplacesNonListCollection(t *testing.T) {
	book := nestedBook(1)
	book["highlights"] = "not a list"

	out := ValidateNested([]domain.Record{book})

	assert.False(t, out[0].Validated())
	assert.Contains(t, out[0].ValidationErrors()["highlights"], "not a list")
	assert.Empty(t, out[0]["highlights"].([]domain.Record))
}

func TestValidateNestedDropsNonObjectElements(t *testing.T) {
	book := nestedBook(1)
	book["highlights"] = []any{"garbage", nestedHighlight(100, 1)}

	out := ValidateNested([]domain.Record{book})

	highlights := out[0]["highlights"].([]domain.Record)
	require.Len(t, highlights, 1)
	assert.EqualValues(t, 100, highlights[0]["id"])

	assert.False(t, out[0].Validated())
	assert.Contains(t, out[0].ValidationErrors(), "highlights.0")
}

func TestValidateNestedCorrectsBookIDMismatch(t *testing.T) {
	book := nestedBook(1)
	book["highlights"] = []any{nestedHighlight(100, 99)}

	out := ValidateNested([]domain.Record{book})

	highlight := out[0]["highlights"].([]domain.Record)[0]
	assert.EqualValues(t, 1, highlight["book_id"], "parent's id wins on mismatch")
	assert.False(t, highlight.Validated())
	assert.Contains(t, highlight.ValidationErrors(), "book_id")

	// The defect is the highlight's, not the book's.
	assert.True(t, out[0].Validated())
}

func TestValidateNestedToleratesNumericTypeDrift(t *testing.T) {
	// JSON decoding yields float64 ids; the fixture book carries int64.
	book := nestedBook(1)
	highlight := nestedHighlight(100, 0)
	highlight["book_id"] = float64(1)
	book["highlights"] = []any{highlight}

	out := ValidateNested([]domain.Record{book})

	got := out[0]["highlights"].([]domain.Record)[0]
	assert.True(t, got.Validated())
	assert.NotContains(t, got.ValidationErrors(), "book_id")
}
