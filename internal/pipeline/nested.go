// Package pipeline implements the Readwise sync pipeline: nested structural
// validation, flattening, per-field schema validation, and the orchestrator
// that sequences them around one store transaction.
//
// The export API returns partially malformed, inconsistently nested and
// type-unstable data. The pipeline's contract is repair-don't-reject: every
// record that arrives is carried through to the store, flagged invalid where
// it could not be trusted, so nothing is silently lost.
package pipeline

import (
	"fmt"
	"reflect"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
)

// ValidateNested is the first validation layer, run on the raw nested export
// payload. It guarantees downstream stages a predictable shape:
//
//   - every object at any depth carries validated/validation_errors fields
//   - every book has list-typed "highlights" and "book_tags"
//   - every highlight has a list-typed "tags" and a book_id equal to its
//     enclosing book's user_book_id
//
// Defects are repaired in place and recorded as per-field errors; no record
// is ever dropped. All books are assumed to carry a user_book_id field.
func ValidateNested(rawBooks []domain.Record) []domain.Record {
	for _, book := range rawBooks {
		stampValidationStatus(map[string]any(book))
	}
	for _, book := range rawBooks {
		ensureList(book, "highlights", "book")
		ensureList(book, "book_tags", "book")
		for _, highlight := range book["highlights"].([]domain.Record) {
			ensureBookID(highlight, book["user_book_id"])
			ensureList(highlight, "tags", "highlight")
		}
	}
	return rawBooks
}

// stampValidationStatus walks a decoded JSON tree and gives every object the
// initial validated=true / empty-errors state, so later checks can rely on
// the fields being present unconditionally.
func stampValidationStatus(v any) {
	switch obj := v.(type) {
	case domain.Record:
		stampValidationStatus(map[string]any(obj))
	case map[string]any:
		for _, child := range obj {
			stampValidationStatus(child)
		}
		domain.Record(obj).InitValidation()
	case []domain.Record:
		for _, item := range obj {
			stampValidationStatus(item)
		}
	case []any:
		for _, item := range obj {
			stampValidationStatus(item)
		}
	}
}

// ensureList guarantees obj[field] is a list of records. A missing or
// wrong-typed value is replaced with an empty list; non-object elements are
// removed. Every repair is recorded against the field and flips the object's
// validity. The list is normalized to []domain.Record.
func ensureList(obj domain.Record, field, parentLabel string) {
	value, present := obj[field]
	if !present || value == nil {
		obj[field] = []domain.Record{}
		obj.Invalidate(field, fmt.Sprintf(
			"Field not found in %s. (Empty list added instead).", parentLabel))
		return
	}

	items, ok := anyList(value)
	if !ok {
		obj.Invalidate(field, fmt.Sprintf(
			"Field not a list in %s. Passed value not stored. Value: %v. (Empty list added instead).",
			parentLabel, value))
		obj[field] = []domain.Record{}
		return
	}

	records := make([]domain.Record, 0, len(items))
	for i, item := range items {
		rec, ok := asRecord(item)
		if !ok {
			obj.Invalidate(fmt.Sprintf("%s.%d", field, i), fmt.Sprintf(
				"Element not an object in %s. Value not stored: %v.", parentLabel, item))
			continue
		}
		records = append(records, rec)
	}
	obj[field] = records
}

// ensureBookID reconciles a highlight's claimed book_id with the enclosing
// book's user_book_id. On mismatch the parent's value wins; the discrepancy
// is recorded but the highlight is never dropped.
func ensureBookID(highlight domain.Record, bookUserBookID any) {
	if looseEqual(highlight["book_id"], bookUserBookID) {
		return
	}
	highlight.Invalidate("book_id", fmt.Sprintf(
		"Highlight book_id %v does not match book user_book_id %v",
		highlight["book_id"], bookUserBookID))
	highlight["book_id"] = bookUserBookID
}

func anyList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []domain.Record:
		items := make([]any, len(list))
		for i, r := range list {
			items[i] = r
		}
		return items, true
	case []map[string]any:
		items := make([]any, len(list))
		for i, r := range list {
			items[i] = r
		}
		return items, true
	}
	return nil, false
}

func asRecord(v any) (domain.Record, bool) {
	switch rec := v.(type) {
	case domain.Record:
		return rec, true
	case map[string]any:
		return domain.Record(rec), true
	}
	return nil, false
}

// looseEqual compares two ids that may have decoded as different numeric
// types (int vs float64). Non-numeric values fall back to deep equality.
func looseEqual(a, b any) bool {
	ai, aok := domain.AsInt64(a)
	bi, bok := domain.AsInt64(b)
	if aok && bok {
		return ai == bi
	}
	return reflect.DeepEqual(a, b)
}
