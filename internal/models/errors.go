package models

import "errors"

var (
	ErrAccountNotFound = errors.New("account not found")

	// ErrStatusConflict is returned when a status transition matched no row,
	// meaning another run already moved the record past the expected state.
	ErrStatusConflict = errors.New("status transition matched no row")
)
