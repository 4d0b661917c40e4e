// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination reads the "number" and "offset" window of list
// endpoints and describes it back in the response meta. The names follow
// the term query options the window feeds into.
package pagination

import (
	"net/http"

	"github.com/taibuivan/multitax/pkg/convert"
)

const (
	// DefaultNumber applies when the request names no page size.
	DefaultNumber = 20
	// MaxNumber caps the page size of a single request.
	MaxNumber = 200
)

// Params is the window requested by a client. Number 0 means "no limit".
type Params struct {
	Number int
	Offset int
}

// Meta is the "meta" object of a paginated response.
type Meta struct {
	Number  int  `json:"number"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// NewMeta describes params against the total number of matches.
func NewMeta(params Params, total int) Meta {
	return Meta{
		Number:  params.Number,
		Offset:  params.Offset,
		Total:   total,
		HasMore: params.Number > 0 && params.Offset+params.Number < total,
	}
}

// FromRequest reads the window from the query string. Malformed or negative
// sizes fall back to [DefaultNumber], sizes above [MaxNumber] are capped
// and negative offsets become 0.
func FromRequest(request *http.Request) Params {
	values := request.URL.Query()

	number := convert.Int(values.Get("number"), DefaultNumber)
	if number < 0 {
		number = DefaultNumber
	}
	return Params{
		Number: min(number, MaxNumber),
		Offset: max(convert.Int(values.Get("offset"), 0), 0),
	}
}
