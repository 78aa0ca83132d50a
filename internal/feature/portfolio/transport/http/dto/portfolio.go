// Package dto defines the request and response bodies of the portfolio API.
package dto

import (
	"github.com/shopspring/decimal"

	"stock_terminal/internal/feature/portfolio/domain/entity"
)

// TradeRequest is the body of POST /portfolio/buy and /portfolio/sell.
// Price is optional; when omitted the trade executes at the current quote.
type TradeRequest struct {
	Symbol string           `json:"symbol" binding:"required,max=10"`
	Shares int64            `json:"shares" binding:"required,gt=0"`
	Price  *decimal.Decimal `json:"price,omitempty"`
}

// TransactionsQuery is the query of GET /portfolio/transactions.
type TransactionsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// TransactionsResponse wraps the trade log.
type TransactionsResponse struct {
	Transactions []entity.Transaction `json:"transactions"`
}
