// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxquery

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/taibuivan/multitax/internal/core/term"
)

// UnmarshalJSON decodes a nested tree. An element holding "queries" is a group;
// anything else is a clause. Unknown keys are rejected.
func (group *Group) UnmarshalJSON(data []byte) error {
	var raw struct {
		Relation Relation          `json:"relation"`
		Queries  []json.RawMessage `json:"queries"`
	}
	if err := strictDecode(data, &raw); err != nil {
		return err
	}

	group.Relation = raw.Relation
	group.Children = make([]Node, 0, len(raw.Queries))

	for _, element := range raw.Queries {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(element, &keys); err != nil {
			return fmt.Errorf("taxquery: element must be an object: %w", err)
		}

		if _, nested := keys["queries"]; nested {
			var child Group
			if err := child.UnmarshalJSON(element); err != nil {
				return err
			}
			group.Children = append(group.Children, child)
			continue
		}

		clause, err := decodeClause(element)
		if err != nil {
			return err
		}
		group.Children = append(group.Children, clause)
	}
	return nil
}

func decodeClause(data []byte) (Clause, error) {
	var raw struct {
		Taxonomy        string     `json:"taxonomy"`
		Terms           any        `json:"terms"`
		Field           term.Field `json:"field"`
		Operator        Operator   `json:"operator"`
		IncludeChildren *bool      `json:"include_children"`
	}
	if err := strictDecode(data, &raw); err != nil {
		return Clause{}, err
	}

	terms, err := termValues(raw.Terms)
	if err != nil {
		return Clause{}, err
	}

	return Clause{
		Taxonomy:        raw.Taxonomy,
		Terms:           terms,
		Field:           raw.Field.Canonical(),
		Operator:        raw.Operator,
		IncludeChildren: raw.IncludeChildren,
	}, nil
}

// termValues accepts a single value or a list of strings and numbers.
func termValues(value any) ([]string, error) {
	switch typed := value.(type) {
	case nil:
		return []string{}, nil
	case string, json.Number:
		return []string{fmt.Sprint(typed)}, nil
	case []any:
		values := make([]string, 0, len(typed))
		for _, element := range typed {
			switch element.(type) {
			case string, json.Number:
				values = append(values, fmt.Sprint(element))
			default:
				return nil, fmt.Errorf("taxquery: terms must be strings or integers, got %T", element)
			}
		}
		return values, nil
	}
	return nil, fmt.Errorf("taxquery: terms must be a list, got %T", value)
}

func strictDecode(data []byte, dest any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("taxquery: %w", err)
	}
	return nil
}
