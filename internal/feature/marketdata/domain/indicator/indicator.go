// Package indicator computes technical indicators from historical series.
//
// Every function is pure: the same series always yields the same value. A
// result that cannot be computed from the available history is reported with
// ok == false rather than a neutral number, so callers never mistake missing
// history for an RSI of 50 or a flat trend.
package indicator

import (
	"math"

	"stock_terminal/internal/feature/marketdata/domain/entity"
)

// Trend is the direction of the short moving average relative to the long one.
type Trend string

const (
	TrendUp   Trend = "UP"
	TrendDown Trend = "DOWN"
	TrendFlat Trend = "FLAT"
)

// Params configures Compute.
type Params struct {
	RSIPeriod      int     // Wilder RSI period
	ShortWindow    int     // short SMA window used for trend
	LongWindow     int     // long SMA window used for trend
	MomentumWindow int     // look-back for momentum
	FlatEpsilon    float64 // relative band around the long SMA treated as FLAT
}

// DefaultParams returns the parameters used by the screener unless configured.
func DefaultParams() Params {
	return Params{
		RSIPeriod:      14,
		ShortWindow:    5,
		LongWindow:     20,
		MomentumWindow: 10,
		FlatEpsilon:    0.001,
	}
}

// RSI returns Wilder's Relative Strength Index over period. The series must
// hold at least period+1 closes.
func RSI(s entity.HistoricalSeries, period int) (float64, bool) {
	return rsi(s.Closes(), period)
}

func rsi(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing for the remaining changes
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50, true
	case avgLoss == 0:
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// SMA returns the arithmetic mean of the trailing window closes.
func SMA(s entity.HistoricalSeries, window int) (float64, bool) {
	return sma(s.Closes(), window)
}

func sma(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window), true
}

// Momentum returns the percent change between the latest close and the close
// window periods earlier.
func Momentum(s entity.HistoricalSeries, window int) (float64, bool) {
	return momentum(s.Closes(), window)
}

func momentum(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) <= window {
		return 0, false
	}
	base := closes[len(closes)-1-window]
	if base == 0 {
		return 0, false
	}
	return (closes[len(closes)-1]/base - 1) * 100, true
}

// TrendOf compares the short and long SMAs. Differences within epsilon of the
// long SMA (relative) are FLAT.
func TrendOf(s entity.HistoricalSeries, short, long int, epsilon float64) (Trend, bool) {
	return trend(s.Closes(), short, long, epsilon)
}

func trend(closes []float64, short, long int, epsilon float64) (Trend, bool) {
	fast, ok := sma(closes, short)
	if !ok {
		return "", false
	}
	slow, ok := sma(closes, long)
	if !ok {
		return "", false
	}
	if math.Abs(fast-slow) <= epsilon*math.Abs(slow) {
		return TrendFlat, true
	}
	if fast > slow {
		return TrendUp, true
	}
	return TrendDown, true
}

// DayChange returns the percent change of the last close against the previous one.
func DayChange(s entity.HistoricalSeries) (float64, bool) {
	return momentum(s.Closes(), 1)
}
