package pipeline

import "github.com/chrisbillows/readwise-local-plus/internal/domain"

// Flattened holds the four normalized record lists produced by Flatten, each
// entry a flat key/value record carrying its owning parent's foreign key.
type Flattened struct {
	Books         []domain.Record
	BookTags      []domain.Record
	Highlights    []domain.Record
	HighlightTags []domain.Record
}

// Flatten splits the nested export payload into independent per-type lists.
// Books lose their "book_tags" and "highlights" children; highlights lose
// "tags". Children gain the parent key: book tags and highlights receive the
// book's user_book_id, highlight tags receive the highlight's id. All other
// fields, including validation metadata, pass through untouched.
//
// Flatten expects ValidateNested to have run: child collections must exist
// and be list-typed.
func Flatten(rawBooks []domain.Record) *Flattened {
	out := &Flattened{
		Books:         []domain.Record{},
		BookTags:      []domain.Record{},
		Highlights:    []domain.Record{},
		HighlightTags: []domain.Record{},
	}

	for _, rawBook := range rawBooks {
		book := rawBook.Clone()
		delete(book, "book_tags")
		delete(book, "highlights")
		out.Books = append(out.Books, book)

		for _, tag := range childRecords(rawBook, "book_tags") {
			tag["user_book_id"] = rawBook["user_book_id"]
			out.BookTags = append(out.BookTags, tag)
		}

		for _, rawHighlight := range childRecords(rawBook, "highlights") {
			for _, tag := range childRecords(rawHighlight, "tags") {
				tag["highlight_id"] = rawHighlight["id"]
				out.HighlightTags = append(out.HighlightTags, tag)
			}

			highlight := rawHighlight.Clone()
			delete(highlight, "tags")
			highlight["book_id"] = rawBook["user_book_id"]
			out.Highlights = append(out.Highlights, highlight)
		}
	}

	return out
}

// childRecords returns the record elements of a child collection, tolerating
// the unnormalized list shapes that appear when Flatten is exercised without
// the nested pass.
func childRecords(r domain.Record, field string) []domain.Record {
	items, ok := anyList(r[field])
	if !ok {
		return nil
	}
	records := make([]domain.Record, 0, len(items))
	for _, item := range items {
		if rec, ok := asRecord(item); ok {
			records = append(records, rec)
		}
	}
	return records
}
