// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate checks request payloads before they reach the catalog
// service. A [Validator] gathers every failed rule and reports them together
// as one VALIDATION_ERROR, so a client sees all bad fields in one response.
//
// Handlers use it for request shape checks; storage never does. Semantic
// failures (unknown taxonomy, missing parent) come from the service instead.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/multitax/internal/platform/apperr"
)

// ErrInvalidJSON is returned when a request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

var taxonomyKey = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// Validator accumulates field errors. The zero value is ready to use; use a
// fresh one per request.
type Validator struct {
	failures []apperr.FieldError
}

// Required rejects blank values.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(field, strings.TrimSpace(value) == "", "This field is required")
}

// MaxLen rejects values longer than limit runes.
func (v *Validator) MaxLen(field, value string, limit int) *Validator {
	return v.Custom(field, utf8.RuneCountInString(value) > limit, fmt.Sprintf("Maximum %d characters", limit))
}

// Range rejects values outside [low, high].
func (v *Validator) Range(field string, value, low, high int) *Validator {
	return v.Custom(field, value < low || value > high, fmt.Sprintf("Must be between %d and %d", low, high))
}

// NonNegative rejects values below zero, e.g. offsets and parent IDs where
// 0 is meaningful.
func (v *Validator) NonNegative(field string, value int64) *Validator {
	return v.Custom(field, value < 0, "Must not be negative")
}

// Taxonomy rejects names a taxonomy could not be registered under: 1 to 32
// lower case letters, digits, '_' or '-'.
func (v *Validator) Taxonomy(field, value string) *Validator {
	return v.Custom(field, !taxonomyKey.MatchString(value), "Must be 1-32 characters of lowercase letters, digits, '_' or '-'")
}

// Custom records message for field when failed is true.
//
//	v.Custom("number", number > 500, "At most 500 rows per page")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.failures = append(v.failures, apperr.FieldError{Field: field, Message: message})
	}
	return v
}

// HasErrors reports whether any rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.failures) > 0
}

// Err ends the chain: nil when every rule passed, otherwise a
// VALIDATION_ERROR listing each failure in order.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.failures...)
}

// Field builds a VALIDATION_ERROR for a single field.
func Field(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{Field: field, Message: message})
}
