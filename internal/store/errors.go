package store

import (
	"errors"

	"triage-flows/internal/flow"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes for constraint violations
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// storageErr wraps a persistence fault, keeping domain errors as they are.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	se := &flow.StorageError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgNotNullViolation, pgCheckViolation:
			se.Constraint = pgErr.ConstraintName
			if se.Constraint == "" {
				se.Constraint = pgErr.Code
			}
		}
	}
	return se
}

func notFound(id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &flow.NotFoundError{Resource: "flow", ID: id}
	}
	return storageErr("load", err)
}

func isDomainError(err error) bool {
	var (
		verr *flow.ValidationError
		perr *flow.PreconditionError
		cerr *flow.ConflictError
		nerr *flow.NotFoundError
		serr *flow.StorageError
	)
	return errors.As(err, &verr) || errors.As(err, &perr) || errors.As(err, &cerr) ||
		errors.As(err, &nerr) || errors.As(err, &serr)
}
