// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package requestutil reads path parameters and JSON bodies for the catalog
// handlers. Every failure it returns is already a VALIDATION_ERROR.
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/multitax/internal/platform/validate"
)

// MaxBodyBytes bounds a JSON request body. Term descriptions and tax query
// trees are small; anything larger is rejected before decoding.
const MaxBodyBytes = 1 << 20

/*
DecodeJSON decodes exactly one JSON document from the request body.

Unknown fields are rejected, so a misspelled "hide_empty" is an error rather
than a silently ignored option. So are trailing documents and bodies over
[MaxBodyBytes].

Parameters:
  - writer: http.ResponseWriter (used by the body size limit)
  - request: *http.Request
  - target: any (pointer to the destination)

Returns:
  - error: validate.ErrInvalidJSON or nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Param returns the named route segment, e.g. "taxonomy" in
// /taxonomies/{taxonomy}/terms.
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// Int64Param parses a route segment holding a term, object or site ID.
func Int64Param(request *http.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || value <= 0 {
		return 0, validate.Field(name, "Must be a positive integer")
	}
	return value, nil
}
