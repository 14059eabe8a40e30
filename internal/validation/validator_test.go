package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRules struct {
	Name     *string `json:"name" validate:"required"`
	Category *string `json:"category" validate:"omitempty,oneof=books articles"`
	ASIN     *string `json:"asin" validate:"omitempty,asin"`
	Note     *string `json:"note,omitempty" validate:"omitempty,max=5"`
}

func strp(s string) *string { return &s }

func TestFieldErrorsPassingStruct(t *testing.T) {
	v := New()
	errs := v.FieldErrors(&sampleRules{Name: strp("ok")})
	assert.Nil(t, errs)
}

func TestFieldErrorsUsesJSONFieldNames(t *testing.T) {
	v := New()
	errs := v.FieldErrors(&sampleRules{Name: strp("ok"), Note: strp("too long to pass")})

	require.Len(t, errs, 1)
	assert.Equal(t, "must not exceed 5 characters", errs["note"], "tag options must be stripped from the key")
}

func TestFieldErrorsRequired(t *testing.T) {
	v := New()
	errs := v.FieldErrors(&sampleRules{})

	assert.Equal(t, "field required", errs["name"])
}

func TestFieldErrorsOneof(t *testing.T) {
	v := New()
	errs := v.FieldErrors(&sampleRules{Name: strp("ok"), Category: strp("newsletter")})

	assert.Equal(t, "must be one of: books articles", errs["category"])
}

func TestFieldErrorsCollectsAllFailures(t *testing.T) {
	v := New()
	errs := v.FieldErrors(&sampleRules{Category: strp("newsletter"), ASIN: strp("nope")})

	assert.Len(t, errs, 3)
}

func TestASINValidation(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		asin  string
		valid bool
	}{
		{"kindle asin", "B002SV0D10", true},
		{"all letters", "ABCDEFGHIJ", true},
		{"lowercase", "b002sv0d10", true},
		{"too short", "B002SV0D1", false},
		{"too long", "B002SV0D10X", false},
		{"punctuation", "B002-V0D10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.FieldErrors(&sampleRules{Name: strp("ok"), ASIN: strp(tt.asin)})
			if tt.valid {
				assert.Nil(t, errs)
			} else {
				assert.Equal(t, "must be a 10 character alphanumeric ASIN", errs["asin"])
			}
		})
	}
}
