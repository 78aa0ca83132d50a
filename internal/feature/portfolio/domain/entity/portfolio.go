// Package entity defines the domain models of the simulated portfolio.
package entity

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stock_terminal/internal/feature/portfolio/domain"
)

// DefaultStartingCash is the cash balance of a new portfolio.
var DefaultStartingCash = decimal.NewFromInt(100_000)

// Action is the side of a trade.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Position is a held stock with its average cost basis.
type Position struct {
	Symbol    string          `json:"symbol"`
	Shares    int64           `json:"shares"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	OpenedAt  time.Time       `json:"opened_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CostBasis returns the cost basis of the position.
func (p Position) CostBasis() decimal.Decimal {
	return p.AvgPrice.Mul(decimal.NewFromInt(p.Shares))
}

// Transaction is one executed trade.
type Transaction struct {
	ID         uint            `json:"id"`
	Symbol     string          `json:"symbol"`
	Action     Action          `json:"action"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Portfolio is the aggregate mutated by trades. Executed trades accumulate
// in Pending until the repository persists them.
type Portfolio struct {
	Cash      decimal.Decimal
	Positions map[string]*Position
	Pending   []Transaction
}

// NewPortfolio returns an empty portfolio holding cash.
func NewPortfolio(cash decimal.Decimal) *Portfolio {
	return &Portfolio{Cash: cash, Positions: map[string]*Position{}}
}

// Buy は現金が足りる場合に株を購入し、平均取得単価を更新します。
func (p *Portfolio) Buy(symbol string, shares int64, price decimal.Decimal, at time.Time) (Transaction, error) {
	if err := checkTrade(shares, price); err != nil {
		return Transaction{}, err
	}
	total := price.Mul(decimal.NewFromInt(shares))
	if total.GreaterThan(p.Cash) {
		return Transaction{}, fmt.Errorf("%w: need %s, have %s", domain.ErrInsufficientCash, total, p.Cash)
	}

	p.Cash = p.Cash.Sub(total)
	if pos, ok := p.Positions[symbol]; ok {
		held := decimal.NewFromInt(pos.Shares)
		n := pos.Shares + shares
		pos.AvgPrice = pos.AvgPrice.Mul(held).Add(total).Div(decimal.NewFromInt(n)).Round(6)
		pos.Shares = n
		pos.UpdatedAt = at
	} else {
		p.Positions[symbol] = &Position{Symbol: symbol, Shares: shares, AvgPrice: price, OpenedAt: at, UpdatedAt: at}
	}
	return p.record(symbol, ActionBuy, shares, price, total, at), nil
}

// Sell は保有株の一部または全部を売却します。全部売却した場合はポジションを削除します。
// 平均取得単価は売却で変化しません。
func (p *Portfolio) Sell(symbol string, shares int64, price decimal.Decimal, at time.Time) (Transaction, error) {
	if err := checkTrade(shares, price); err != nil {
		return Transaction{}, err
	}
	pos, ok := p.Positions[symbol]
	if !ok {
		return Transaction{}, fmt.Errorf("%w: %s", domain.ErrNotFound, symbol)
	}
	if shares > pos.Shares {
		return Transaction{}, fmt.Errorf("%w: selling %d, holding %d", domain.ErrInsufficientShares, shares, pos.Shares)
	}

	total := price.Mul(decimal.NewFromInt(shares))
	p.Cash = p.Cash.Add(total)
	pos.Shares -= shares
	pos.UpdatedAt = at
	if pos.Shares == 0 {
		delete(p.Positions, symbol)
	}
	return p.record(symbol, ActionSell, shares, price, total, at), nil
}

// Holdings returns the positions ordered by symbol.
func (p *Portfolio) Holdings() []Position {
	out := make([]Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (p *Portfolio) record(symbol string, a Action, shares int64, price, total decimal.Decimal, at time.Time) Transaction {
	tx := Transaction{Symbol: symbol, Action: a, Shares: shares, Price: price, Total: total, ExecutedAt: at}
	p.Pending = append(p.Pending, tx)
	return tx
}

func checkTrade(shares int64, price decimal.Decimal) error {
	if shares <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, shares)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPrice, price)
	}
	return nil
}
