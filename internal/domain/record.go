// Package domain defines the entities mirrored from the Readwise export API
// and the loosely-typed record form they travel in through the sync pipeline.
//
// Identity note: Readwise primary keys are used as local primary keys
// throughout, so local rows and remote objects stay aligned across syncs.
// Batch ids are the only locally generated identifiers.
package domain

import "maps"

// Validation metadata keys carried by every record after the nested
// validation pass, and persisted as columns on every entity table.
const (
	FieldValidated        = "validated"
	FieldValidationErrors = "validation_errors"
)

// Record is one loosely-typed object from the Readwise export payload: a book,
// highlight, book tag or highlight tag, before it is coerced into a typed
// entity. The export API is not reliably shaped, so records keep whatever the
// API sent until field validation has run.
type Record map[string]any

// InitValidation stamps the record as valid with an empty error map.
// Validation stages only ever flip the flag to false; a record that arrives
// invalid stays invalid.
func (r Record) InitValidation() {
	r[FieldValidated] = true
	r[FieldValidationErrors] = map[string]string{}
}

// Validated reports the record's current validity flag. Records that have not
// been through InitValidation report false.
func (r Record) Validated() bool {
	v, ok := r[FieldValidated].(bool)
	return ok && v
}

// ValidationErrors returns the record's field → message error map, creating
// it if absent.
func (r Record) ValidationErrors() map[string]string {
	if m, ok := r[FieldValidationErrors].(map[string]string); ok {
		return m
	}
	m := map[string]string{}
	r[FieldValidationErrors] = m
	return m
}

// Invalidate records a per-field error and flips the validity flag. It never
// removes the field or the record: validation errors are data, not control
// flow.
func (r Record) Invalidate(field, msg string) {
	r.ValidationErrors()[field] = msg
	r[FieldValidated] = false
}

// Clone returns a shallow copy of the record. Child collections are shared;
// callers that strip them must do so on the copy.
func (r Record) Clone() Record {
	return Record(maps.Clone(map[string]any(r)))
}
