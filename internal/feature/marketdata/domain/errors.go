// Package domain defines domain-level errors for the marketdata feature.
package domain

import "errors"

// Provider errors. All three are transient: the fetch coordinator records them
// and falls through to the next provider, they are never returned to callers.
var (
	// ErrProviderUnavailable covers network failures, timeouts and 5xx responses.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderRateLimited is returned when the provider signals its own quota
	// was exceeded (HTTP 429 or an equivalent in-body notice).
	ErrProviderRateLimited = errors.New("provider rate limited")

	// ErrProviderBadData is returned when a response cannot be mapped into a
	// canonical Quote or HistoricalSeries.
	ErrProviderBadData = errors.New("provider returned bad data")
)

var (
	// ErrNoDataAvailable means every provider failed or was skipped and no cached
	// entry could be served. Callers render "N/A".
	ErrNoDataAvailable = errors.New("no data available")

	// ErrInvalidSymbol is returned for symbols that are empty, too long or contain
	// characters outside [A-Z0-9.^=-].
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidKind is returned for data kinds other than quote, history and news.
	ErrInvalidKind = errors.New("invalid data kind")
)

// IsTransient reports whether err is one of the provider errors the coordinator
// handles by falling back.
func IsTransient(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) ||
		errors.Is(err, ErrProviderRateLimited) ||
		errors.Is(err, ErrProviderBadData)
}
