// Package entity defines the domain models for the screener feature.
package entity

import (
	"fmt"
	"strings"

	"stock_terminal/internal/feature/marketdata/domain/indicator"
	"stock_terminal/internal/feature/screener/domain"
)

// Signal is the trading hint derived from a snapshot.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// ParseSignal accepts BUY, SELL, HOLD in any case. "" and "ANY" mean no filter.
func ParseSignal(s string) (Signal, error) {
	switch v := Signal(strings.ToUpper(strings.TrimSpace(s))); v {
	case SignalBuy, SignalSell, SignalHold:
		return v, nil
	case "", "ANY":
		return "", nil
	}
	return "", fmt.Errorf("%w: signal %q", domain.ErrInvalidCriteria, s)
}

// ParseTrend accepts UP, DOWN, FLAT in any case. "" and "ANY" mean no filter.
func ParseTrend(s string) (indicator.Trend, error) {
	switch v := indicator.Trend(strings.ToUpper(strings.TrimSpace(s))); v {
	case indicator.TrendUp, indicator.TrendDown, indicator.TrendFlat:
		return v, nil
	case "", "ANY":
		return "", nil
	}
	return "", fmt.Errorf("%w: trend %q", domain.ErrInvalidCriteria, s)
}

// Thresholds are the RSI levels used to derive signals and the percent
// bands used by the momentum and breakout presets.
type Thresholds struct {
	Oversold          float64 `json:"oversold" yaml:"oversold"`
	Overbought        float64 `json:"overbought" yaml:"overbought"`
	MomentumStrong    float64 `json:"momentum_strong" yaml:"momentum_strong"`
	MomentumMild      float64 `json:"momentum_mild" yaml:"momentum_mild"`
	DayChangeBreakout float64 `json:"day_change_breakout" yaml:"day_change_breakout"`
}

// DefaultThresholds returns RSI 30/70 and bands 5%/2%/1%.
func DefaultThresholds() Thresholds {
	return Thresholds{Oversold: 30, Overbought: 70, MomentumStrong: 5, MomentumMild: 2, DayChangeBreakout: 1}
}

// Validate rejects inverted RSI levels and momentum bands.
func (th Thresholds) Validate() error {
	if th.Oversold >= th.Overbought {
		return fmt.Errorf("%w: oversold %g must be below overbought %g", domain.ErrInvalidCriteria, th.Oversold, th.Overbought)
	}
	if th.MomentumMild > th.MomentumStrong {
		return fmt.Errorf("%w: momentum_mild %g exceeds momentum_strong %g", domain.ErrInvalidCriteria, th.MomentumMild, th.MomentumStrong)
	}
	return nil
}

// DeriveSignal は BUY（RSIが売られすぎ水準未満かつ上昇トレンド）、
// SELL（RSIが買われすぎ水準超）、それ以外は HOLD を返します。
// snap.RSI が nil の場合は HOLD です。
func DeriveSignal(snap indicator.Snapshot, th Thresholds) Signal {
	if snap.RSI == nil {
		return SignalHold
	}
	rsi := *snap.RSI
	switch {
	case rsi < th.Oversold && snap.Trend == indicator.TrendUp:
		return SignalBuy
	case rsi > th.Overbought:
		return SignalSell
	default:
		return SignalHold
	}
}

// Criteria filters candidates. A nil or empty field places no constraint on
// that dimension. The RSI range is inclusive; the momentum and day change
// thresholds are strict lower bounds.
type Criteria struct {
	MinRSI         *float64        `json:"min_rsi,omitempty"`
	MaxRSI         *float64        `json:"max_rsi,omitempty"`
	Trend          indicator.Trend `json:"trend,omitempty"`
	MomentumAbove  *float64        `json:"momentum_above,omitempty"`
	DayChangeAbove *float64        `json:"day_change_above,omitempty"`
	Signal         Signal          `json:"signal,omitempty"`
}

// Validate rejects contradictory ranges.
func (c Criteria) Validate() error {
	if c.MinRSI != nil && c.MaxRSI != nil && *c.MinRSI > *c.MaxRSI {
		return fmt.Errorf("%w: min_rsi %.2f > max_rsi %.2f", domain.ErrInvalidCriteria, *c.MinRSI, *c.MaxRSI)
	}
	return nil
}

// Match reports whether cand satisfies every set constraint. The candidate
// snapshot must be defined.
func (c Criteria) Match(cand Candidate) bool {
	s := cand.Snapshot
	if c.MinRSI != nil && *s.RSI < *c.MinRSI {
		return false
	}
	if c.MaxRSI != nil && *s.RSI > *c.MaxRSI {
		return false
	}
	if c.Trend != "" && s.Trend != c.Trend {
		return false
	}
	if c.MomentumAbove != nil && !(*s.Momentum > *c.MomentumAbove) {
		return false
	}
	if c.DayChangeAbove != nil && (s.DayChange == nil || !(*s.DayChange > *c.DayChangeAbove)) {
		return false
	}
	if c.Signal != "" && cand.Signal != c.Signal {
		return false
	}
	return true
}
