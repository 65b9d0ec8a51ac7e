// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"

	"talkhub/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isUniqueViolation recognises duplicate keys whether or not GORM's error
// translation ran (raw Exec paths bypass it on some drivers).
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// asConflict converts a uniqueness violation into a typed ConflictError and
// passes every other error through unchanged.
func asConflict(err error, message string) error {
	if err != nil && isUniqueViolation(err) {
		return models.NewConflictError(message, err)
	}
	return err
}
