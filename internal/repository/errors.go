package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when the email unique index rejects a write
	ErrDuplicateEmail = errors.New("account with this email already exists")

	// ErrDuplicateUsername is returned when the username unique index rejects a write
	ErrDuplicateUsername = errors.New("account with this username already exists")

	// ErrDuplicateStats is returned when an account already has a stats record
	ErrDuplicateStats = errors.New("stats for this account already exist")
)
