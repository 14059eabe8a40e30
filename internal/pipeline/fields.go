package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
	"github.com/chrisbillows/readwise-local-plus/internal/validation"
)

// Second validation layer: per-record, per-field schema validation on the
// flattened lists. Coercion is all-or-nothing per record: a record that fails
// any check is emitted with its original values, flagged invalid, with
// per-field messages merged into its error map. A record is never dropped.

type fieldKind int

const (
	kindInt fieldKind = iota
	kindString
	kindBool
	kindTime
)

func (k fieldKind) errorMessage() string {
	switch k {
	case kindInt:
		return "must be an integer"
	case kindString:
		return "must be a string"
	case kindBool:
		return "must be a boolean"
	case kindTime:
		return "must be an ISO 8601 timestamp"
	}
	return "is invalid"
}

// fieldSpec declares the strict wire type of one schema field and whether the
// field must be present on the record. Presence and nullability are separate:
// most book/highlight fields must be present but may be null.
type fieldSpec struct {
	kind     fieldKind
	required bool
}

// schema is the declarative validation unit for one flattened object type.
// The field table drives presence checks and strict type coercion; the rules
// struct carries the validator/v10 constraint tags.
type schema struct {
	fields   map[string]fieldSpec
	newRules func() any
}

// bookRules mirrors the unnested book schema: exactly these fourteen fields.
// The nested highlights/book_tags collections are stripped by the flattener
// before this layer runs, so they are not schema fields here; their shape is
// enforced by the nested pass.
type bookRules struct {
	UserBookID    *int64  `json:"user_book_id" validate:"required"`
	Title         *string `json:"title" validate:"required"`
	IsDeleted     *bool   `json:"is_deleted"`
	Author        *string `json:"author"`
	ReadableTitle *string `json:"readable_title" validate:"required"`
	Source        *string `json:"source"`
	CoverImageURL *string `json:"cover_image_url"`
	UniqueURL     *string `json:"unique_url"`
	Summary       *string `json:"summary"`
	Category      *string `json:"category" validate:"required,oneof=books articles tweets podcasts"`
	DocumentNote  *string `json:"document_note"`
	ReadwiseURL   *string `json:"readwise_url" validate:"required"`
	SourceURL     *string `json:"source_url"`
	ASIN          *string `json:"asin" validate:"omitempty,asin"`
}

type highlightRules struct {
	ID           *int64  `json:"id" validate:"required"`
	Text         *string `json:"text" validate:"required,max=8191"`
	Location     *int64  `json:"location"`
	LocationType *string `json:"location_type"`
	Note         *string `json:"note"`
	Color        *string `json:"color" validate:"omitempty,oneof=yellow pink orange blue purple green"`
	// Timestamps ride through the rule check as RFC3339 strings; they were
	// already coerced to time.Time by the descriptor layer.
	HighlightedAt *string `json:"highlighted_at"`
	CreatedAt     *string `json:"created_at"`
	UpdatedAt     *string `json:"updated_at"`
	ExternalID    *string `json:"external_id"`
	EndLocation   *int64  `json:"end_location"`
	URL           *string `json:"url"`
	BookID        *int64  `json:"book_id" validate:"required"`
	IsFavorite    *bool   `json:"is_favorite"`
	IsDiscard     *bool   `json:"is_discard"`
	IsDeleted     *bool   `json:"is_deleted"`
	ReadwiseURL   *string `json:"readwise_url"`
}

// tagRules covers both book tags and highlight tags. The API does not
// reliably populate tag fields, so everything is optional; types are still
// enforced when a value is present.
type tagRules struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name" validate:"omitempty,max=512"`
}

var bookSchema = &schema{
	fields: map[string]fieldSpec{
		"user_book_id":    {kind: kindInt, required: true},
		"title":           {kind: kindString, required: true},
		"is_deleted":      {kind: kindBool, required: true},
		"author":          {kind: kindString, required: true},
		"readable_title":  {kind: kindString, required: true},
		"source":          {kind: kindString, required: true},
		"cover_image_url": {kind: kindString, required: true},
		"unique_url":      {kind: kindString, required: true},
		"summary":         {kind: kindString, required: true},
		"category":        {kind: kindString, required: true},
		"document_note":   {kind: kindString, required: true},
		"readwise_url":    {kind: kindString, required: true},
		"source_url":      {kind: kindString, required: true},
		"asin":            {kind: kindString, required: true},
	},
	newRules: func() any { return &bookRules{} },
}

var highlightSchema = &schema{
	fields: map[string]fieldSpec{
		"id":             {kind: kindInt, required: true},
		"text":           {kind: kindString, required: true},
		"location":       {kind: kindInt, required: true},
		"location_type":  {kind: kindString, required: true},
		"note":           {kind: kindString, required: true},
		"color":          {kind: kindString, required: true},
		"highlighted_at": {kind: kindTime, required: true},
		"created_at":     {kind: kindTime, required: true},
		"updated_at":     {kind: kindTime, required: true},
		"external_id":    {kind: kindString, required: true},
		"end_location":   {kind: kindInt, required: true},
		"url":            {kind: kindString, required: true},
		"book_id":        {kind: kindInt, required: true},
		"is_favorite":    {kind: kindBool, required: true},
		"is_discard":     {kind: kindBool, required: true},
		"is_deleted":     {kind: kindBool, required: true},
		"readwise_url":   {kind: kindString, required: true},
	},
	newRules: func() any { return &highlightRules{} },
}

var tagSchema = &schema{
	fields: map[string]fieldSpec{
		"id":   {kind: kindInt, required: false},
		"name": {kind: kindString, required: false},
	},
	newRules: func() any { return &tagRules{} },
}

var rulesValidator = validation.New()

// ValidateFields runs every flattened record through its object type's
// schema. Output lists are the same length as input lists: valid records come
// back with coerced canonical values (timestamps as time.Time) and their
// validity flag unchanged; invalid records come back untouched except for the
// merged error detail and validated=false.
func ValidateFields(flat *Flattened) *Flattened {
	return &Flattened{
		Books:         validateRecords(bookSchema, flat.Books),
		BookTags:      validateRecords(tagSchema, flat.BookTags),
		Highlights:    validateRecords(highlightSchema, flat.Highlights),
		HighlightTags: validateRecords(tagSchema, flat.HighlightTags),
	}
}

func validateRecords(sch *schema, records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, validateRecord(sch, rec))
	}
	return out
}

func validateRecord(sch *schema, rec domain.Record) domain.Record {
	fieldErrs := map[string]string{}
	passthrough := map[string]any{}
	coerced := map[string]any{}

	for key, value := range rec {
		if key == domain.FieldValidated || key == domain.FieldValidationErrors {
			passthrough[key] = value
			continue
		}
		spec, declared := sch.fields[key]
		if !declared {
			// Newly-added upstream fields must surface, not vanish. The
			// value stays on the record; the defect is flagged.
			fieldErrs[key] = "extra fields are not permitted"
			continue
		}
		if value == nil {
			coerced[key] = nil
			continue
		}
		v, ok := coerceValue(spec, value)
		if !ok {
			fieldErrs[key] = fmt.Sprintf("%s (value: %v)", spec.kind.errorMessage(), value)
			continue
		}
		coerced[key] = v
	}

	for name, spec := range sch.fields {
		if _, present := rec[name]; spec.required && !present {
			fieldErrs[name] = "field required"
		}
	}

	if len(fieldErrs) == 0 {
		if ruleErrs := checkRules(sch, coerced); len(ruleErrs) > 0 {
			fieldErrs = ruleErrs
		}
	}

	if len(fieldErrs) > 0 {
		// All-or-nothing: no partially coerced values leak out.
		for field, msg := range fieldErrs {
			rec.Invalidate(field, msg)
		}
		return rec
	}

	out := domain.Record{}
	for name := range sch.fields {
		out[name] = coerced[name]
	}
	for key, value := range passthrough {
		out[key] = value
	}
	return out
}

func coerceValue(spec fieldSpec, value any) (any, bool) {
	switch spec.kind {
	case kindInt:
		if i, ok := domain.AsInt64(value); ok {
			return i, true
		}
	case kindString:
		if s, ok := value.(string); ok {
			return s, true
		}
	case kindBool:
		if b, ok := value.(bool); ok {
			return b, true
		}
	case kindTime:
		if t, ok := domain.AsTime(value); ok {
			return t, true
		}
	}
	return nil, false
}

// checkRules round-trips the coerced fields through JSON into the schema's
// typed rules struct and runs the validator/v10 constraints on it.
func checkRules(sch *schema, coerced map[string]any) map[string]string {
	raw, err := json.Marshal(coerced)
	if err != nil {
		return map[string]string{"_record": fmt.Sprintf("marshal for rule check: %v", err)}
	}
	rules := sch.newRules()
	if err := json.Unmarshal(raw, rules); err != nil {
		return map[string]string{"_record": fmt.Sprintf("unmarshal for rule check: %v", err)}
	}
	return rulesValidator.FieldErrors(rules)
}
