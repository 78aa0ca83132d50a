// Package domain defines domain-level errors for the screener feature.
package domain

import "errors"

var (
	// ErrUnknownPreset is returned for preset names that are not defined.
	ErrUnknownPreset = errors.New("unknown screener preset")

	// ErrUnknownSector is returned when a sector universe is not configured.
	ErrUnknownSector = errors.New("unknown sector")

	// ErrInvalidCriteria is returned for contradictory criteria such as min_rsi > max_rsi.
	ErrInvalidCriteria = errors.New("invalid screen criteria")

	// ErrEmptyUniverse is returned when there is nothing to screen.
	ErrEmptyUniverse = errors.New("empty screening universe")
)
