package entity

import (
	"fmt"
	"time"

	"stock_terminal/internal/feature/marketdata/domain"
)

// Kind selects which payload a resolve request is for.
type Kind string

const (
	KindQuote   Kind = "quote"
	KindHistory Kind = "history"
	KindNews    Kind = "news"
)

// ParseKind converts a user supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindQuote, KindHistory, KindNews:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidKind, s)
}

// SourceCache is the Source of results served from the cache store.
const SourceCache = "cache"

// Result is what the fetch coordinator hands back for one (symbol, kind).
// Exactly one of Quote, Series and News is set, matching Kind. News may be
// an empty list when the provider had no articles in the window.
//
// Stale is the advisory flag for data served after every provider failed:
// the payload is real but older than its TTL.
type Result struct {
	Symbol    string            `json:"symbol"`
	Kind      Kind              `json:"kind"`
	Quote     *Quote            `json:"quote,omitempty"`
	Series    *HistoricalSeries `json:"series,omitempty"`
	News      []Article         `json:"news,omitempty"`
	Source    string            `json:"source"`
	FetchedAt time.Time         `json:"fetched_at"`
	Stale     bool              `json:"stale"`
}
