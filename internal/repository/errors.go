package repository

import (
	"errors"
	"strings"

	"sazon/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLSTATE codes returned by postgres for integrity violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// isConstraintError reports FK, CHECK and NOT NULL violations.
func isConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgCheckViolation, pgNotNullViolation:
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "violates foreign key") ||
		strings.Contains(msg, "violates check constraint")
}

// classifyWriteError maps a store error onto the error taxonomy. duplicate
// builds the error reported for unique violations; when nil those become
// constraint violations too.
func classifyWriteError(err error, duplicate func() error) error {
	var appErr *models.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case isUniqueConstraintError(err) && duplicate != nil:
		return duplicate()
	case isUniqueConstraintError(err), isConstraintError(err):
		return models.NewConstraintViolationError(err)
	}
	return models.NewInternalError(err)
}

// classifyReadError turns a missing row into NOT_FOUND.
func classifyReadError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// ForShare makes reads on db take a shared row lock on postgres, so a
// concurrent hard delete of the row waits for the caller's transaction.
// Other dialects return db unchanged.
func ForShare(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() != "postgres" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "SHARE"})
}

// Classify maps a store error from a write that has no uniqueness rule of its
// own, such as a cascade delete.
func Classify(err error) error {
	return classifyWriteError(err, nil)
}
