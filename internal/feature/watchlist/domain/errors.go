// Package domain defines domain-level errors for the watchlist feature.
package domain

import "errors"

var (
	// ErrNotFound is returned when the symbol is not on the watchlist.
	ErrNotFound = errors.New("symbol not on watchlist")

	// ErrAlreadyExists is returned when adding a symbol that is already watched.
	ErrAlreadyExists = errors.New("symbol already on watchlist")
)
