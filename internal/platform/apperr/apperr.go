// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the tagged failure value returned by every taxonomy
operation.

An [AppError] carries a machine-readable code (INVALID_TAXONOMY, INVALID_TERM,
AMBIGUOUS_TERM, INEXISTENT_TERMS, ...), a client-safe message and the HTTP
status the API answers with. Callers branch on the code through [errors.Is]
against package-level sentinels, never on the message. Datastore diagnostics
travel in Cause and are logged, not returned.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a failure with a stable code and the status the API answers
// with. Message and Details go to the client; Cause goes to the log only,
// since it may hold SQL or driver text.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches any [*AppError] with the same Code, so a sentinel such as
// term.ErrAmbiguousTerm matches every copy produced by [AppError.WithCause].
func (e *AppError) Is(target error) bool {
	var other *AppError
	return errors.As(target, &other) && other.Code == e.Code
}

// WithCause returns a copy of e carrying cause; e itself is not modified.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// New declares an error kind. Domain packages use it for their sentinels.
func New(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: status}
}

// # Generic kinds

// NotFound reports a missing resource: NotFound("Term") reads "Term not found".
func NotFound(resource string) *AppError {
	return New("NOT_FOUND", http.StatusNotFound, resource+" not found")
}

func Unauthorized(msg string) *AppError {
	return New("UNAUTHORIZED", http.StatusUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return New("FORBIDDEN", http.StatusForbidden, msg)
}

// Conflict reports a write rejected by a uniqueness or reference rule.
func Conflict(msg string) *AppError {
	return New("CONFLICT", http.StatusConflict, msg)
}

// ValidationError reports a malformed request, optionally per field.
func ValidationError(msg string, details ...FieldError) *AppError {
	validation := New("VALIDATION_ERROR", http.StatusBadRequest, msg)
	validation.Details = details
	return validation
}

// RateLimited tells the client how long to back off.
func RateLimited(retryAfterSeconds int) *AppError {
	return New("RATE_LIMITED", http.StatusTooManyRequests,
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// Internal hides cause behind a generic 500.
func Internal(cause error) *AppError {
	return New("INTERNAL_ERROR", http.StatusInternalServerError, "An unexpected error occurred").WithCause(cause)
}

// # Inspection

// As returns the first [*AppError] in err's chain, or nil.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

// HasCode reports whether err's chain holds an [*AppError] with code.
func HasCode(err error, code string) bool {
	appError := As(err)
	return appError != nil && appError.Code == code
}
