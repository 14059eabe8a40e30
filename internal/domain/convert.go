package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Record → entity conversion. Conversion is deliberately lenient: by the time
// a record reaches here it has been through both validation layers, and
// records that failed them are still persisted (flagged invalid). A value
// that cannot be coerced maps to NULL; the original value survives inside the
// record's validation error message.

// BookFromRecord builds a Book from a flattened, validated record.
func BookFromRecord(r Record) *Book {
	b := &Book{
		UserBookID:       intField(r, "user_book_id"),
		Title:            strField(r, "title"),
		Author:           strField(r, "author"),
		ReadableTitle:    strField(r, "readable_title"),
		Source:           strField(r, "source"),
		CoverImageURL:    strField(r, "cover_image_url"),
		UniqueURL:        strField(r, "unique_url"),
		Summary:          strField(r, "summary"),
		Category:         strField(r, "category"),
		DocumentNote:     strField(r, "document_note"),
		ReadwiseURL:      strField(r, "readwise_url"),
		SourceURL:        strField(r, "source_url"),
		ExternalID:       strField(r, "external_id"),
		ASIN:             strField(r, "asin"),
		IsDeleted:        boolField(r, "is_deleted"),
		Validated:        r.Validated(),
		ValidationErrors: errorsField(r),
	}
	return b
}

// HighlightFromRecord builds a Highlight from a flattened, validated record.
func HighlightFromRecord(r Record) *Highlight {
	return &Highlight{
		ID:               intField(r, "id"),
		BookID:           intField(r, "book_id"),
		Text:             strField(r, "text"),
		Location:         intPtrField(r, "location"),
		LocationType:     strField(r, "location_type"),
		Note:             strField(r, "note"),
		Color:            strField(r, "color"),
		HighlightedAt:    timeField(r, "highlighted_at"),
		CreatedAt:        timeField(r, "created_at"),
		UpdatedAt:        timeField(r, "updated_at"),
		ExternalID:       strField(r, "external_id"),
		EndLocation:      intPtrField(r, "end_location"),
		URL:              strField(r, "url"),
		IsFavorite:       boolField(r, "is_favorite"),
		IsDiscard:        boolField(r, "is_discard"),
		IsDeleted:        boolField(r, "is_deleted"),
		ReadwiseURL:      strField(r, "readwise_url"),
		Validated:        r.Validated(),
		ValidationErrors: errorsField(r),
	}
}

// BookTagFromRecord builds a BookTag from a flattened, validated record.
func BookTagFromRecord(r Record) *BookTag {
	return &BookTag{
		ID:               intField(r, "id"),
		Name:             strField(r, "name"),
		UserBookID:       intField(r, "user_book_id"),
		Validated:        r.Validated(),
		ValidationErrors: errorsField(r),
	}
}

// HighlightTagFromRecord builds a HighlightTag from a flattened, validated record.
func HighlightTagFromRecord(r Record) *HighlightTag {
	return &HighlightTag{
		ID:               intField(r, "id"),
		Name:             strField(r, "name"),
		HighlightID:      intField(r, "highlight_id"),
		Validated:        r.Validated(),
		ValidationErrors: errorsField(r),
	}
}

// AsInt64 coerces the numeric representations JSON decoding can produce.
// Returns false for anything that is not a whole number.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return i, true
		}
	}
	return 0, false
}

// timeLayouts are the ISO-8601 shapes the export API has been observed to
// emit: with and without fractional seconds, with and without a zone.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// AsTime coerces ISO-8601 strings (or a time.Time passed through a prior
// coercion) to a time value.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func intField(r Record, key string) int64 {
	if i, ok := AsInt64(r[key]); ok {
		return i
	}
	return 0
}

func intPtrField(r Record, key string) *int64 {
	if i, ok := AsInt64(r[key]); ok {
		return &i
	}
	return nil
}

func strField(r Record, key string) *string {
	if s, ok := r[key].(string); ok {
		return &s
	}
	return nil
}

func boolField(r Record, key string) *bool {
	if b, ok := r[key].(bool); ok {
		return &b
	}
	return nil
}

func timeField(r Record, key string) *time.Time {
	if t, ok := AsTime(r[key]); ok {
		return &t
	}
	return nil
}

func errorsField(r Record) map[string]string {
	errs := map[string]string{}
	switch m := r[FieldValidationErrors].(type) {
	case map[string]string:
		for k, v := range m {
			errs[k] = v
		}
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				errs[k] = s
			}
		}
	}
	return errs
}
