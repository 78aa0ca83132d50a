// Package entity defines the domain models for the marketdata feature.
package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stock_terminal/internal/feature/marketdata/domain"
)

// MaxSymbolLength is the longest ticker accepted by NormalizeSymbol.
const MaxSymbolLength = 10

// Quote is the latest trade snapshot for a symbol, normalised from any provider.
type Quote struct {
	Symbol        string          `json:"symbol"`         // Uppercase ticker (e.g., "AAPL")
	Price         decimal.Decimal `json:"price"`          // Last traded price
	ChangePercent decimal.Decimal `json:"change_percent"` // Percent change against the previous close
	Volume        int64           `json:"volume"`         // Session volume, 0 when the provider omits it
	High          decimal.Decimal `json:"high"`           // Session high
	Low           decimal.Decimal `json:"low"`            // Session low
	Timestamp     time.Time       `json:"timestamp"`      // Provider timestamp of the quote
}

// Validate checks the invariants every provider mapper must satisfy.
func (q Quote) Validate() error {
	if _, err := NormalizeSymbol(q.Symbol); err != nil {
		return err
	}
	if q.Price.IsNegative() {
		return fmt.Errorf("%w: negative price %s", domain.ErrProviderBadData, q.Price)
	}
	if q.Volume < 0 {
		return fmt.Errorf("%w: negative volume %d", domain.ErrProviderBadData, q.Volume)
	}
	if q.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", domain.ErrProviderBadData)
	}
	return nil
}

// NormalizeSymbol trims and uppercases s and checks it is a plausible ticker.
func NormalizeSymbol(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || len(s) > MaxSymbolLength {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSymbol, s)
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '^', r == '=':
		default:
			return "", fmt.Errorf("%w: %q", domain.ErrInvalidSymbol, s)
		}
	}
	return s, nil
}
