// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"strings"

	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/platform/apperr"
)

// # Term Meta

// GetTermMeta returns the meta rows of termID, restricted to key when it is not empty.
func (service *Service) GetTermMeta(context context.Context, termID int64, key string) ([]term.Meta, error) {
	if termID <= 0 {
		return nil, term.NotFound(termID, "")
	}
	return service.repo.ListMeta(context, termID, key)
}

/*
AddTermMeta adds a meta row to termID.

Parameters:
  - context: context.Context
  - termID: int64
  - key: string
  - value: string
  - unique: bool (refuse when key already has a row)

Returns:
  - int64: The new meta_id
  - error: ErrInvalidTerm, a CONFLICT when unique is violated
*/
func (service *Service) AddTermMeta(context context.Context, termID int64, key, value string, unique bool) (int64, error) {
	if err := service.requireMetaTarget(context, termID, key); err != nil {
		return 0, err
	}

	if unique {
		rows, err := service.repo.ListMeta(context, termID, key)
		if err != nil {
			return 0, err
		}
		if len(rows) > 0 {
			return 0, apperr.Conflict("Meta key " + key + " already exists for this term")
		}
	}

	metaID, err := service.repo.AddMeta(context, termID, key, value)
	if err != nil {
		return 0, err
	}
	service.changed(context)
	return metaID, nil
}

// UpdateTermMeta rewrites the rows of key, restricted to rows holding previous
// when it is not nil. A key with no rows is added instead.
func (service *Service) UpdateTermMeta(context context.Context, termID int64, key, value string, previous *string) (int64, error) {
	if err := service.requireMetaTarget(context, termID, key); err != nil {
		return 0, err
	}

	updated, err := service.repo.UpdateMeta(context, termID, key, value, previous)
	if err != nil {
		return 0, err
	}
	if updated == 0 && previous == nil {
		if _, err := service.repo.AddMeta(context, termID, key, value); err != nil {
			return 0, err
		}
		updated = 1
	}
	if updated > 0 {
		service.changed(context)
	}
	return updated, nil
}

// DeleteTermMeta removes the rows of key, restricted to value when it is not nil.
func (service *Service) DeleteTermMeta(context context.Context, termID int64, key string, value *string) (int64, error) {
	if err := service.requireMetaTarget(context, termID, key); err != nil {
		return 0, err
	}

	deleted, err := service.repo.DeleteMeta(context, termID, key, value)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		service.changed(context)
	}
	return deleted, nil
}

// requireMetaTarget checks that key is set and termID exists in some taxonomy.
func (service *Service) requireMetaTarget(context context.Context, termID int64, key string) error {
	if strings.TrimSpace(key) == "" {
		return apperr.ValidationError("meta key is required",
			apperr.FieldError{Field: "key", Message: "must not be empty"})
	}
	pairings, err := service.repo.FindByTermID(context, termID)
	if err != nil {
		return err
	}
	if len(pairings) == 0 {
		return term.NotFound(termID, "")
	}
	return nil
}
