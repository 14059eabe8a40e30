package domain

import "testing"

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }
func i64p(i int64) *int64   { return &i }

func contentBook() *Book {
	return &Book{
		UserBookID:       1,
		Title:            strp("The Dispossessed"),
		Author:           strp("Ursula K. Le Guin"),
		Category:         strp("books"),
		IsDeleted:        boolp(false),
		BatchID:          1,
		Validated:        true,
		ValidationErrors: map[string]string{},
	}
}

func TestBookContentEqualsIdentical(t *testing.T) {
	if !contentBook().ContentEquals(contentBook()) {
		t.Error("identical books should compare equal")
	}
}

func TestBookContentEqualsIgnoresBatchID(t *testing.T) {
	a, b := contentBook(), contentBook()
	b.BatchID = 99
	if !a.ContentEquals(b) {
		t.Error("batch provenance is not content")
	}
}

func TestBookContentEqualsDetectsFieldChange(t *testing.T) {
	a, b := contentBook(), contentBook()
	b.Title = strp("The Left Hand of Darkness")
	if a.ContentEquals(b) {
		t.Error("changed title should compare unequal")
	}
}

func TestBookContentEqualsNilVsValue(t *testing.T) {
	a, b := contentBook(), contentBook()
	b.Author = nil
	if a.ContentEquals(b) {
		t.Error("nil vs value should compare unequal")
	}

	a.Author = nil
	if !a.ContentEquals(b) {
		t.Error("nil vs nil should compare equal")
	}
}

func TestBookContentEqualsTracksValidity(t *testing.T) {
	a, b := contentBook(), contentBook()
	b.Validated = false
	b.ValidationErrors = map[string]string{"title": "must be a string"}
	if a.ContentEquals(b) {
		t.Error("a validity flip is a content change")
	}
}

func TestBookContentEqualsNilAndEmptyErrorMaps(t *testing.T) {
	a, b := contentBook(), contentBook()
	a.ValidationErrors = nil
	b.ValidationErrors = map[string]string{}
	if !a.ContentEquals(b) {
		t.Error("nil and empty error maps carry the same meaning")
	}
}
