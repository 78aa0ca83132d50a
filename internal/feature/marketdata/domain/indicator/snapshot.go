package indicator

import "stock_terminal/internal/feature/marketdata/domain/entity"

// Snapshot bundles the indicators derived from one series. Nil fields could not
// be computed from the available history and serialise as JSON null.
type Snapshot struct {
	RSI       *float64 `json:"rsi"`
	SMAShort  *float64 `json:"sma_short"`
	SMALong   *float64 `json:"sma_long"`
	Momentum  *float64 `json:"momentum"`
	DayChange *float64 `json:"day_change"`
	Trend     Trend    `json:"trend,omitempty"`
	LastClose float64  `json:"last_close"`
	Points    int      `json:"points"`
}

// Compute derives a Snapshot from s.
func Compute(s entity.HistoricalSeries, p Params) Snapshot {
	closes := s.Closes()
	snap := Snapshot{Points: len(closes)}
	if last, ok := s.Last(); ok {
		snap.LastClose = last.Close
	}

	snap.RSI = ptr(rsi(closes, p.RSIPeriod))
	snap.SMAShort = ptr(sma(closes, p.ShortWindow))
	snap.SMALong = ptr(sma(closes, p.LongWindow))
	snap.Momentum = ptr(momentum(closes, p.MomentumWindow))
	snap.DayChange = ptr(momentum(closes, 1))
	if t, ok := trend(closes, p.ShortWindow, p.LongWindow, p.FlatEpsilon); ok {
		snap.Trend = t
	}
	return snap
}

// Defined reports whether every indicator the screener relies on is present.
func (s Snapshot) Defined() bool {
	return s.RSI != nil && s.Momentum != nil && s.Trend != ""
}

func ptr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
