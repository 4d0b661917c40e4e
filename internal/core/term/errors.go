// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package term

import (
	"fmt"
	"net/http"

	"github.com/taibuivan/multitax/internal/platform/apperr"
)

// Error kinds of the term layer. Compare with errors.Is; the message of a
// returned error may be more specific than the sentinel's.
var (
	ErrInvalidTerm     = apperr.New("INVALID_TERM", http.StatusNotFound, "Empty or unknown term")
	ErrAmbiguousTerm   = apperr.New("AMBIGUOUS_TERM", http.StatusConflict, "Term ID is shared between multiple taxonomies")
	ErrInexistentTerms = apperr.New("INEXISTENT_TERMS", http.StatusBadRequest, "Inexistent terms")
	ErrTermExists      = apperr.New("TERM_EXISTS", http.StatusConflict, "A term with the name provided already exists")
	ErrDuplicateSlug   = apperr.New("DUPLICATE_SLUG", http.StatusConflict, "The slug is already in use by another term")
	ErrMissingParent   = apperr.New("MISSING_PARENT", http.StatusBadRequest, "Parent term does not exist")
	ErrHierarchyLoop   = apperr.New("HIERARCHY_LOOP", http.StatusBadRequest, "The new parent would create a hierarchy loop")
	ErrEmptyName       = apperr.New("EMPTY_TERM_NAME", http.StatusBadRequest, "A name is required for this term")
)

// invalid builds an [ErrInvalidTerm] naming the missing term.
func invalid(format string, args ...any) error {
	return apperr.New(ErrInvalidTerm.Code, ErrInvalidTerm.HTTPStatus, fmt.Sprintf(format, args...))
}

// NotFound reports a term that does not exist in taxonomy.
func NotFound(termID int64, taxonomy string) error {
	if taxonomy == "" {
		return invalid("Term %d does not exist", termID)
	}
	return invalid("Term %d does not exist in taxonomy %s", termID, taxonomy)
}

// Ambiguous reports a shared term looked up without a taxonomy.
func Ambiguous(termID int64, taxonomies []string) error {
	return apperr.New(ErrAmbiguousTerm.Code, ErrAmbiguousTerm.HTTPStatus,
		fmt.Sprintf("Term %d is shared between taxonomies %v; a taxonomy is required", termID, taxonomies))
}

// Exists reports a duplicate term and carries the existing identity in Details.
func Exists(existing Ref) error {
	err := apperr.New(ErrTermExists.Code, ErrTermExists.HTTPStatus, ErrTermExists.Message)
	err.Details = []apperr.FieldError{{Field: "term_id", Message: fmt.Sprint(existing.TermID)}}
	return err
}
