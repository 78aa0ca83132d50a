package indicator

import (
	"math"

	"github.com/shopspring/decimal"

	"stock_terminal/internal/feature/marketdata/domain/entity"
)

// Fixed brackets around the last price.
var (
	stopLossFactor   = decimal.RequireFromString("0.98")
	takeProfitFactor = decimal.RequireFromString("1.05")
)

// MaxRiskScore is the ceiling of Risk.Score.
const MaxRiskScore = 10.0

// Risk is a quick per-quote risk summary.
type Risk struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	Volatility float64         `json:"volatility"` // session range as percent of price
	StopLoss   decimal.Decimal `json:"stop_loss"`
	TakeProfit decimal.Decimal `json:"take_profit"`
	Score      float64         `json:"score"` // 0..MaxRiskScore
}

// RiskOf derives the risk summary of q. Volatility is (high-low)/price*100 and
// is zero when the price is not positive or the session range is missing.
func RiskOf(q entity.Quote) Risk {
	r := Risk{
		Symbol:     q.Symbol,
		Price:      q.Price,
		StopLoss:   q.Price.Mul(stopLossFactor).Round(4),
		TakeProfit: q.Price.Mul(takeProfitFactor).Round(4),
	}
	if !q.Price.IsPositive() || !q.Low.IsPositive() || q.High.LessThan(q.Low) {
		return r
	}
	vol, _ := q.High.Sub(q.Low).Div(q.Price).Mul(decimal.NewFromInt(100)).Float64()
	r.Volatility = vol
	r.Score = math.Min(MaxRiskScore, vol)
	return r
}
