package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAsInt64(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		want  int64
		valid bool
	}{
		{"int", 42, 42, true},
		{"int64", int64(42), 42, true},
		{"whole float", float64(42), 42, true},
		{"fractional float", 42.5, 0, false},
		{"json.Number", json.Number("42"), 42, true},
		{"string", "42", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AsInt64(tt.in)
			if ok != tt.valid {
				t.Fatalf("AsInt64(%v) ok = %v, want %v", tt.in, ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Errorf("AsInt64(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestAsTime(t *testing.T) {
	want := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name  string
		in    any
		valid bool
	}{
		{"rfc3339", "2025-03-14T09:26:53Z", true},
		{"rfc3339 nano", "2025-03-14T09:26:53.000000000Z", true},
		{"no zone", "2025-03-14T09:26:53", true},
		{"no zone fractional", "2025-03-14T09:26:53.5", true},
		{"passthrough", want, true},
		{"date only", "2025-03-14", false},
		{"garbage", "last tuesday", false},
		{"nil", nil, false},
		{"number", float64(1742000000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := AsTime(tt.in)
			if ok != tt.valid {
				t.Errorf("AsTime(%v) ok = %v, want %v", tt.in, ok, tt.valid)
			}
		})
	}

	got, ok := AsTime("2025-03-14T09:26:53Z")
	if !ok || !got.Equal(want) {
		t.Errorf("AsTime parsed %v, want %v", got, want)
	}
}

func TestBookFromRecord(t *testing.T) {
	r := Record{
		"user_book_id": int64(1),
		"title":        "The Dispossessed",
		"author":       "Ursula K. Le Guin",
		"category":     "books",
		"is_deleted":   false,
		"summary":      nil,
	}
	r.InitValidation()

	b := BookFromRecord(r)

	if b.UserBookID != 1 {
		t.Errorf("UserBookID = %d", b.UserBookID)
	}
	if b.Title == nil || *b.Title != "The Dispossessed" {
		t.Errorf("Title = %v", b.Title)
	}
	if b.Summary != nil {
		t.Errorf("nil field should map to nil pointer, got %v", *b.Summary)
	}
	if b.IsDeleted == nil || *b.IsDeleted {
		t.Errorf("IsDeleted = %v", b.IsDeleted)
	}
	if !b.Validated {
		t.Error("validity flag should carry through")
	}
	if len(b.ValidationErrors) != 0 {
		t.Errorf("ValidationErrors = %v", b.ValidationErrors)
	}
}

func TestBookFromRecordUncoercibleValuesBecomeNull(t *testing.T) {
	r := Record{
		"user_book_id": int64(1),
		"title":        12345,
	}
	r.Invalidate("title", "must be a string (value: 12345)")

	b := BookFromRecord(r)

	if b.Title != nil {
		t.Errorf("uncoercible title should be nil, got %v", *b.Title)
	}
	if b.Validated {
		t.Error("record flagged invalid should stay invalid")
	}
	if b.ValidationErrors["title"] == "" {
		t.Error("error detail should survive conversion")
	}
}

func TestHighlightFromRecord(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	r := Record{
		"id":             int64(100),
		"book_id":        int64(1),
		"text":           "There was a wall.",
		"location":       int64(11),
		"highlighted_at": at,
		"is_favorite":    true,
	}
	r.InitValidation()

	h := HighlightFromRecord(r)

	if h.ID != 100 || h.BookID != 1 {
		t.Errorf("ids = %d, %d", h.ID, h.BookID)
	}
	if h.Location == nil || *h.Location != 11 {
		t.Errorf("Location = %v", h.Location)
	}
	if h.HighlightedAt == nil || !h.HighlightedAt.Equal(at) {
		t.Errorf("HighlightedAt = %v", h.HighlightedAt)
	}
	if h.IsFavorite == nil || !*h.IsFavorite {
		t.Errorf("IsFavorite = %v", h.IsFavorite)
	}
	if h.EndLocation != nil {
		t.Errorf("absent field should be nil, got %v", *h.EndLocation)
	}
}

func TestTagsFromRecords(t *testing.T) {
	r := Record{"id": float64(10), "name": "sf", "user_book_id": int64(1)}
	r.InitValidation()
	bt := BookTagFromRecord(r)
	if bt.ID != 10 || bt.UserBookID != 1 {
		t.Errorf("book tag = %+v", bt)
	}
	if bt.Name == nil || *bt.Name != "sf" {
		t.Errorf("Name = %v", bt.Name)
	}

	r2 := Record{"id": int64(500), "name": "opening-lines", "highlight_id": int64(100)}
	r2.InitValidation()
	ht := HighlightTagFromRecord(r2)
	if ht.ID != 500 || ht.HighlightID != 100 {
		t.Errorf("highlight tag = %+v", ht)
	}
}

func TestErrorsFieldHandlesLooseMap(t *testing.T) {
	// A record that round-tripped through JSON carries map[string]any.
	r := Record{
		"user_book_id":        int64(1),
		FieldValidated:        false,
		FieldValidationErrors: map[string]any{"title": "must be a string"},
	}

	b := BookFromRecord(r)

	if b.ValidationErrors["title"] != "must be a string" {
		t.Errorf("ValidationErrors = %v", b.ValidationErrors)
	}
}
