// Package validation wraps the validator/v10 library with the rule layer used
// on flattened Readwise records: enumerations, length bounds and the ASIN
// format, reported as per-field messages keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator configured for the Readwise
// schemas. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our schemas.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		for i := 0; i < len(name); i++ {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	// ASIN: Amazon Standard Identification Number, 10 alphanumerics.
	// Only present on Kindle-sourced books.
	if err := v.RegisterValidation("asin", isASIN); err != nil {
		panic(fmt.Sprintf("register asin validation: %v", err))
	}

	return &Validator{v: v}
}

// FieldErrors validates a schema struct and returns per-field messages keyed
// by JSON field name. A nil map means the struct passed every rule.
func (v *Validator) FieldErrors(s any) map[string]string {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		// InvalidValidationError: a programming error, not a data defect.
		return map[string]string{"_struct": err.Error()}
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}
	return fieldErrors
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "asin":
		return "must be a 10 character alphanumeric ASIN"
	default:
		return "is invalid"
	}
}

func isASIN(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
