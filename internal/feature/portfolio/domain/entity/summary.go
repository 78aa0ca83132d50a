package entity

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Mark is the market price used to value one position.
type Mark struct {
	Price decimal.Decimal
	Stale bool
}

// Valuation is a position marked to market. When no quote was available
// Priced is false, Price is nil and the position is carried at cost.
type Valuation struct {
	Position
	Priced     bool             `json:"priced"`
	Stale      bool             `json:"stale"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Cost       decimal.Decimal  `json:"cost"`
	Value      decimal.Decimal  `json:"value"`
	PnL        decimal.Decimal  `json:"pnl"`
	PnLPercent decimal.Decimal  `json:"pnl_percent"`
}

// Summary is the whole portfolio marked to market.
type Summary struct {
	Cash          decimal.Decimal `json:"cash"`
	StockValue    decimal.Decimal `json:"stock_value"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	ReturnPercent decimal.Decimal `json:"return_percent"`
	Unpriced      int             `json:"unpriced"`
	Positions     []Valuation     `json:"positions"`
}

// Value marks every position with marks and computes totals. ReturnPercent
// is measured against starting.
func (p *Portfolio) Value(marks map[string]Mark, starting decimal.Decimal) Summary {
	s := Summary{Cash: p.Cash, Positions: []Valuation{}}
	for _, pos := range p.Holdings() {
		v := Valuation{Position: pos, Cost: pos.CostBasis()}
		if m, ok := marks[pos.Symbol]; ok {
			price := m.Price
			v.Priced, v.Stale, v.Price = true, m.Stale, &price
			v.Value = price.Mul(decimal.NewFromInt(pos.Shares))
			v.PnL = v.Value.Sub(v.Cost)
			if v.Cost.IsPositive() {
				v.PnLPercent = v.PnL.Div(v.Cost).Mul(hundred).Round(2)
			}
		} else {
			v.Value = v.Cost
			s.Unpriced++
		}
		s.StockValue = s.StockValue.Add(v.Value)
		s.TotalPnL = s.TotalPnL.Add(v.PnL)
		s.Positions = append(s.Positions, v)
	}
	s.TotalValue = s.Cash.Add(s.StockValue)
	if starting.IsPositive() {
		s.ReturnPercent = s.TotalValue.Sub(starting).Div(starting).Mul(hundred).Round(2)
	}
	return s
}
