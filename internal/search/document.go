// Package search provides full-text search over the local highlight mirror
// using Bleve. Highlights are indexed together with denormalized book context
// so a single query covers highlight text, notes, titles and authors.
package search

import (
	"strconv"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
)

// SearchDocument is the document structure for the Bleve index: one document
// per highlight, with its book's identifying fields denormalized in.
//
// Design note: denormalizing book title/author into highlight documents
// trades index size for single-query search. Highlight libraries are small
// enough that the trade is free in practice.
type SearchDocument struct {
	ID          string `json:"id"` // "highlight_<id>"
	HighlightID int64  `json:"highlight_id"`
	BookID      int64  `json:"book_id"`

	// Primary searchable text.
	Text string `json:"text"`
	Note string `json:"note,omitempty"`

	// Denormalized book context.
	BookTitle string `json:"book_title,omitempty"`
	Author    string `json:"author,omitempty"`

	// Keyword fields for filtering and faceting.
	Category string   `json:"category,omitempty"`
	Color    string   `json:"color,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	IsFavorite bool `json:"is_favorite"`

	// Unix millis, for sorting by recency.
	HighlightedAt int64 `json:"highlighted_at"`
}

// DocumentID returns the index key for a highlight.
func DocumentID(highlightID int64) string {
	return "highlight_" + strconv.FormatInt(highlightID, 10)
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our mapping
// uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":             d.ID,
		"highlight_id":   d.HighlightID,
		"book_id":        d.BookID,
		"text":           d.Text,
		"is_favorite":    d.IsFavorite,
		"highlighted_at": d.HighlightedAt,
	}

	// Optional fields - only add if non-empty.
	if d.Note != "" {
		m["note"] = d.Note
	}
	if d.BookTitle != "" {
		m["book_title"] = d.BookTitle
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.Category != "" {
		m["category"] = d.Category
	}
	if d.Color != "" {
		m["color"] = d.Color
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}

	return m
}

// HighlightToSearchDocument converts a highlight and its book context into a
// SearchDocument. The caller provides the book and tag names so this package
// does not depend on the store.
func HighlightToSearchDocument(h *domain.Highlight, book *domain.Book, tags []string) *SearchDocument {
	doc := &SearchDocument{
		ID:          DocumentID(h.ID),
		HighlightID: h.ID,
		BookID:      h.BookID,
		Tags:        tags,
	}

	if h.Text != nil {
		doc.Text = *h.Text
	}
	if h.Note != nil {
		doc.Note = *h.Note
	}
	if h.Color != nil {
		doc.Color = *h.Color
	}
	if h.IsFavorite != nil {
		doc.IsFavorite = *h.IsFavorite
	}
	if h.HighlightedAt != nil {
		doc.HighlightedAt = h.HighlightedAt.UnixMilli()
	}

	if book != nil {
		if book.Title != nil {
			doc.BookTitle = *book.Title
		}
		if book.Author != nil {
			doc.Author = *book.Author
		}
		if book.Category != nil {
			doc.Category = *book.Category
		}
	}

	return doc
}
