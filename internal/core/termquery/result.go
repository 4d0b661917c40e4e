// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package termquery

import (
	"github.com/taibuivan/multitax/internal/core/term"
)

// IDParent is one entry of an "id=>parent" result.
type IDParent struct {
	TermID int64 `json:"term_id"`
	Parent int64 `json:"parent"`
}

// IDLabel is one entry of an "id=>name" or "id=>slug" result.
type IDLabel struct {
	TermID int64  `json:"term_id"`
	Label  string `json:"label"`
}

// Result holds the output of a term query. Exactly one collection is set,
// chosen by Fields.
type Result struct {
	Fields  Fields       `json:"fields"`
	Terms   []*term.Term `json:"terms,omitempty"`
	IDs     []int64      `json:"ids,omitempty"`
	Labels  []string     `json:"labels,omitempty"`
	Parents []IDParent   `json:"parents,omitempty"`
	Pairs   []IDLabel    `json:"pairs,omitempty"`
	Count   int64        `json:"count,omitempty"`
}

// Len returns the number of entries, or the total for count queries.
func (result *Result) Len() int {
	switch result.Fields {
	case FieldsAll, FieldsAllWithObjectID:
		return len(result.Terms)
	case FieldsIDs, FieldsMtmtIDs:
		return len(result.IDs)
	case FieldsNames, FieldsSlugs:
		return len(result.Labels)
	case FieldsIDParent:
		return len(result.Parents)
	case FieldsIDName, FieldsIDSlug:
		return len(result.Pairs)
	case FieldsCount:
		return int(result.Count)
	}
	return 0
}

func emptyResult(fields Fields) *Result {
	return shape(nil, fields)
}

// shape projects terms into the requested output.
func shape(terms []*term.Term, fields Fields) *Result {
	result := &Result{Fields: fields}

	switch fields {
	case FieldsAll, FieldsAllWithObjectID:
		result.Terms = make([]*term.Term, 0, len(terms))
		result.Terms = append(result.Terms, terms...)
	case FieldsIDs:
		result.IDs = make([]int64, 0, len(terms))
		for _, item := range terms {
			result.IDs = append(result.IDs, item.TermID)
		}
	case FieldsMtmtIDs:
		result.IDs = make([]int64, 0, len(terms))
		for _, item := range terms {
			result.IDs = append(result.IDs, item.MtmtID)
		}
	case FieldsNames:
		result.Labels = make([]string, 0, len(terms))
		for _, item := range terms {
			result.Labels = append(result.Labels, item.Name)
		}
	case FieldsSlugs:
		result.Labels = make([]string, 0, len(terms))
		for _, item := range terms {
			result.Labels = append(result.Labels, item.Slug)
		}
	case FieldsIDParent:
		result.Parents = make([]IDParent, 0, len(terms))
		for _, item := range terms {
			result.Parents = append(result.Parents, IDParent{TermID: item.TermID, Parent: item.Parent})
		}
	case FieldsIDName:
		result.Pairs = make([]IDLabel, 0, len(terms))
		for _, item := range terms {
			result.Pairs = append(result.Pairs, IDLabel{TermID: item.TermID, Label: item.Name})
		}
	case FieldsIDSlug:
		result.Pairs = make([]IDLabel, 0, len(terms))
		for _, item := range terms {
			result.Pairs = append(result.Pairs, IDLabel{TermID: item.TermID, Label: item.Slug})
		}
	case FieldsCount:
		result.Count = int64(len(terms))
	}
	return result
}
