// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package dberr classifies pgx errors for the stores.

Every store method passes its error through [Wrap] with a short action label
("select terms", "insert relationship"). The client sees a generic
[apperr.AppError]; the label and the driver diagnostic stay in the cause
for the server log.
*/
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/multitax/internal/platform/apperr"
)

// SQLSTATE codes mapped to client errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// ErrNotFound is returned for single-row lookups that matched nothing.
var ErrNotFound = apperr.NotFound("Resource")

// Wrap maps err to an [apperr.AppError]; nil stays nil.
//
//   - pgx.ErrNoRows becomes [ErrNotFound]
//   - unique and foreign key violations become CONFLICT
//   - anything else becomes INTERNAL_ERROR
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	cause := fmt.Errorf("%s: %w", action, err)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict("Resource already exists").WithCause(cause)
		case codeForeignKeyViolation:
			return apperr.Conflict("Referenced resource does not exist").WithCause(cause)
		}
	}
	return apperr.Internal(cause)
}

// IsNotFound reports whether err carries the code of [ErrNotFound].
func IsNotFound(err error) bool {
	return apperr.HasCode(err, ErrNotFound.Code)
}
