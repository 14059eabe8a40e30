package domain

import (
	"maps"
	"time"
)

// Highlight is one saved excerpt. BookID references the owning Book's
// UserBookID; the nested validation pass guarantees it matches the book the
// highlight arrived nested under.
type Highlight struct {
	ID            int64
	BookID        int64
	Text          *string
	Location      *int64
	LocationType  *string
	Note          *string
	Color         *string
	HighlightedAt *time.Time
	CreatedAt     *time.Time
	UpdatedAt     *time.Time
	ExternalID    *string
	EndLocation   *int64
	URL           *string
	IsFavorite    *bool
	IsDiscard     *bool
	IsDeleted     *bool
	ReadwiseURL   *string

	BatchID int64

	Validated        bool
	ValidationErrors map[string]string
}

// ContentEquals reports whether two highlights carry identical tracked state
// (all persisted columns except the primary key and BatchID; BookID is
// tracked because Readwise can move a highlight between parents).
func (h *Highlight) ContentEquals(o *Highlight) bool {
	return h.BookID == o.BookID &&
		eqStr(h.Text, o.Text) &&
		eqInt(h.Location, o.Location) &&
		eqStr(h.LocationType, o.LocationType) &&
		eqStr(h.Note, o.Note) &&
		eqStr(h.Color, o.Color) &&
		eqTime(h.HighlightedAt, o.HighlightedAt) &&
		eqTime(h.CreatedAt, o.CreatedAt) &&
		eqTime(h.UpdatedAt, o.UpdatedAt) &&
		eqStr(h.ExternalID, o.ExternalID) &&
		eqInt(h.EndLocation, o.EndLocation) &&
		eqStr(h.URL, o.URL) &&
		eqBool(h.IsFavorite, o.IsFavorite) &&
		eqBool(h.IsDiscard, o.IsDiscard) &&
		eqBool(h.IsDeleted, o.IsDeleted) &&
		eqStr(h.ReadwiseURL, o.ReadwiseURL) &&
		h.Validated == o.Validated &&
		maps.Equal(h.ValidationErrors, o.ValidationErrors)
}

func eqTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
