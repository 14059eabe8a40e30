package domain

import "time"

// Batch records one fetch-and-write cycle. StartTime and EndTime bracket the
// external fetch call; DatabaseWriteTime is set as the final step inside the
// write transaction, so a non-null value is the only durable signal that the
// batch's writes completed.
type Batch struct {
	ID                int64
	StartTime         time.Time
	EndTime           time.Time
	DatabaseWriteTime *time.Time
}

// BookVersion is an append-only snapshot of a Book's prior state, taken just
// before the live row is overwritten. The embedded Book's BatchID is the
// batch that originally introduced the snapshotted state; BatchIDWhenVersioned
// is the batch whose sync superseded it.
type BookVersion struct {
	VersionID            int64
	Version              int64
	VersionedAt          time.Time
	BatchIDWhenVersioned int64
	Book
}

// HighlightVersion is the Highlight counterpart of BookVersion.
type HighlightVersion struct {
	VersionID            int64
	Version              int64
	VersionedAt          time.Time
	BatchIDWhenVersioned int64
	Highlight
}

// SyncSet is one fetch cycle's worth of validated, flattened entities, ready
// for reconciliation. Invalid entities are included: they are written with
// Validated=false so they stay inspectable.
type SyncSet struct {
	Books         []*Book
	BookTags      []*BookTag
	Highlights    []*Highlight
	HighlightTags []*HighlightTag
}

// Empty reports whether the set contains no entities at all. An empty set
// still produces a batch row and a watermark advance.
func (s *SyncSet) Empty() bool {
	return len(s.Books) == 0 && len(s.BookTags) == 0 &&
		len(s.Highlights) == 0 && len(s.HighlightTags) == 0
}

// SyncResult summarizes what one reconciliation transaction did.
type SyncResult struct {
	BatchID   int64
	WriteTime time.Time

	BooksInserted  int
	BooksVersioned int
	BooksUnchanged int

	HighlightsInserted  int
	HighlightsVersioned int
	HighlightsUnchanged int

	BookTagsInserted      int
	HighlightTagsInserted int
}
