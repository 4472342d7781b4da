package database

import "errors"

var (
	// ErrConnect wraps failures to open or reach the database.
	ErrConnect = errors.New("database connection failed")
	// ErrTableNotFound is returned when the target table does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrColumnMismatch is returned when source columns do not exist in the
	// target table.
	ErrColumnMismatch = errors.New("column mismatch")
	// ErrConstraintViolation wraps primary key, unique, foreign key,
	// not-null and check violations.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrConversion wraps values the server could not coerce to the column type.
	ErrConversion = errors.New("value conversion failed")
)
