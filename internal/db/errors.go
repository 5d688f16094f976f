package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Domain-level database error sentinels.
var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")

	// Profile errors
	ErrProfileNotFound  = errors.New("profile not found")
	ErrDuplicateProfile = errors.New("profile name already exists")

	// Category errors
	ErrCategoryNotFound = errors.New("category not found")

	// Request errors
	ErrRequestNotFound = errors.New("request not found")

	// Shortlist errors
	ErrShortlistNotFound = errors.New("shortlist entry not found")
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// pgForeignKeyViolation is the SQLSTATE for foreign key violations.
const pgForeignKeyViolation = "23503"

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
