package entity

import (
	"cmp"
	"fmt"
	"slices"

	"stock_terminal/internal/feature/marketdata/domain/indicator"
	"stock_terminal/internal/feature/screener/domain"
)

// Candidate is one symbol that passed the screen.
type Candidate struct {
	Symbol   string             `json:"symbol"`
	Signal   Signal             `json:"signal"`
	Snapshot indicator.Snapshot `json:"indicators"`
	Source   string             `json:"source"`
	Stale    bool               `json:"stale"`
}

// Order ranks candidates.
type Order string

const (
	OrderNone          Order = ""
	OrderRSIAsc        Order = "rsi_asc"
	OrderMomentumDesc  Order = "momentum_desc"
	OrderDayChangeDesc Order = "day_change_desc"
)

// ParseOrder validates an order name.
func ParseOrder(s string) (Order, error) {
	switch o := Order(s); o {
	case OrderNone, OrderRSIAsc, OrderMomentumDesc, OrderDayChangeDesc:
		return o, nil
	}
	return "", fmt.Errorf("%w: order %q", domain.ErrInvalidCriteria, s)
}

// Sort orders cs in place. Ties keep their screening order.
func (o Order) Sort(cs []Candidate) {
	var key func(Candidate) float64
	desc := false
	switch o {
	case OrderRSIAsc:
		key = func(c Candidate) float64 { return deref(c.Snapshot.RSI) }
	case OrderMomentumDesc:
		key, desc = func(c Candidate) float64 { return deref(c.Snapshot.Momentum) }, true
	case OrderDayChangeDesc:
		key, desc = func(c Candidate) float64 { return deref(c.Snapshot.DayChange) }, true
	default:
		return
	}
	slices.SortStableFunc(cs, func(a, b Candidate) int {
		if desc {
			return cmp.Compare(key(b), key(a))
		}
		return cmp.Compare(key(a), key(b))
	})
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
