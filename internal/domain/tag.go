package domain

// BookTag is a user-defined tag on a book. Tag names are not unique; tag ids
// are, so tags are keyed by id and grouped by name downstream.
type BookTag struct {
	ID         int64
	Name       *string
	UserBookID int64
	BatchID    int64

	Validated        bool
	ValidationErrors map[string]string
}

// HighlightTag is a user-defined tag on a single highlight. A name like
// "favourite" can exist at both book and highlight level under different ids.
type HighlightTag struct {
	ID          int64
	Name        *string
	HighlightID int64
	BatchID     int64

	Validated        bool
	ValidationErrors map[string]string
}
