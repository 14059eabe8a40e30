package domain

import (
	"testing"
	"time"
)

func contentHighlight() *Highlight {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return &Highlight{
		ID:               100,
		BookID:           1,
		Text:             strp("There was a wall."),
		Location:         i64p(11),
		Color:            strp("yellow"),
		HighlightedAt:    &at,
		IsFavorite:       boolp(false),
		BatchID:          1,
		Validated:        true,
		ValidationErrors: map[string]string{},
	}
}

func TestHighlightContentEqualsIdentical(t *testing.T) {
	if !contentHighlight().ContentEquals(contentHighlight()) {
		t.Error("identical highlights should compare equal")
	}
}

func TestHighlightContentEqualsTracksBookID(t *testing.T) {
	a, b := contentHighlight(), contentHighlight()
	b.BookID = 2
	if a.ContentEquals(b) {
		t.Error("a reparented highlight is a content change")
	}
}

func TestHighlightContentEqualsComparesInstants(t *testing.T) {
	a, b := contentHighlight(), contentHighlight()
	// Same instant, different zone representation.
	shifted := a.HighlightedAt.In(time.FixedZone("CET", 3600))
	b.HighlightedAt = &shifted
	if !a.ContentEquals(b) {
		t.Error("timestamps should compare by instant, not representation")
	}
}

func TestHighlightContentEqualsDetectsNoteChange(t *testing.T) {
	a, b := contentHighlight(), contentHighlight()
	b.Note = strp("look this up")
	if a.ContentEquals(b) {
		t.Error("added note should compare unequal")
	}
}
