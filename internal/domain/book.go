package domain

import "maps"

// Book is the parent object for all highlights, whatever their source: a
// Kindle book, an article, a tweet thread, a podcast episode. Readwise calls
// them all "books".
//
// Optional columns are pointers so that NULL round-trips: the export API
// genuinely distinguishes a missing author from an empty one.
type Book struct {
	UserBookID    int64
	Title         *string
	Author        *string
	ReadableTitle *string
	Source        *string
	CoverImageURL *string
	UniqueURL     *string
	Summary       *string
	Category      *string
	DocumentNote  *string
	ReadwiseURL   *string
	SourceURL     *string
	ExternalID    *string
	ASIN          *string
	IsDeleted     *bool

	// BatchID tags the batch that last wrote this row.
	BatchID int64

	Validated        bool
	ValidationErrors map[string]string
}

// ContentEquals reports whether two books carry identical tracked state:
// every persisted column except the primary key and BatchID. Validation
// columns are tracked, so a record whose validity changes counts as changed.
func (b *Book) ContentEquals(o *Book) bool {
	return eqStr(b.Title, o.Title) &&
		eqStr(b.Author, o.Author) &&
		eqStr(b.ReadableTitle, o.ReadableTitle) &&
		eqStr(b.Source, o.Source) &&
		eqStr(b.CoverImageURL, o.CoverImageURL) &&
		eqStr(b.UniqueURL, o.UniqueURL) &&
		eqStr(b.Summary, o.Summary) &&
		eqStr(b.Category, o.Category) &&
		eqStr(b.DocumentNote, o.DocumentNote) &&
		eqStr(b.ReadwiseURL, o.ReadwiseURL) &&
		eqStr(b.SourceURL, o.SourceURL) &&
		eqStr(b.ExternalID, o.ExternalID) &&
		eqStr(b.ASIN, o.ASIN) &&
		eqBool(b.IsDeleted, o.IsDeleted) &&
		b.Validated == o.Validated &&
		maps.Equal(b.ValidationErrors, o.ValidationErrors)
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
