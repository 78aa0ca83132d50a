// Package domain defines domain-level errors for the simulated portfolio.
package domain

import "errors"

var (
	// ErrInsufficientCash is returned when a buy costs more than the available cash.
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrInsufficientShares is returned when a sell exceeds the held shares.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrInvalidQuantity is returned for a non-positive share count.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidPrice is returned for an explicit non-positive price.
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrQuoteUnavailable is returned when a trade needs a market price and
	// no fresh quote could be resolved. Trades never execute on stale prices.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrNotFound is returned when no position is held for the symbol.
	ErrNotFound = errors.New("position not found")
)
