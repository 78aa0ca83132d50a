package entity

import (
	"fmt"
	"sort"
	"time"

	"stock_terminal/internal/feature/marketdata/domain"
)

// Point is one daily bar of a historical series.
type Point struct {
	Date   time.Time `json:"date"`   // Trading day, truncated to midnight UTC
	Close  float64   `json:"close"`  // Closing price
	Volume int64     `json:"volume"` // Trading volume
}

// HistoricalSeries holds daily closes for one symbol in ascending date order
// without duplicate dates.
type HistoricalSeries struct {
	Symbol string  `json:"symbol"`
	Points []Point `json:"points"`
}

// NewHistoricalSeries sorts points ascending by date and collapses duplicate
// dates, keeping the last occurrence. An empty result is bad data.
func NewHistoricalSeries(symbol string, points []Point) (HistoricalSeries, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return HistoricalSeries{}, err
	}

	byDay := make(map[time.Time]Point, len(points))
	for _, p := range points {
		if p.Close < 0 || p.Volume < 0 {
			return HistoricalSeries{}, fmt.Errorf("%w: negative value on %s", domain.ErrProviderBadData, p.Date.Format(time.DateOnly))
		}
		y, m, d := p.Date.UTC().Date()
		p.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		byDay[p.Date] = p
	}
	if len(byDay) == 0 {
		return HistoricalSeries{}, fmt.Errorf("%w: empty series for %s", domain.ErrProviderBadData, sym)
	}

	out := make([]Point, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	return HistoricalSeries{Symbol: sym, Points: out}, nil
}

// Len returns the number of points.
func (s HistoricalSeries) Len() int { return len(s.Points) }

// Closes returns the closing prices in date order.
func (s HistoricalSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Last returns the most recent point. ok is false for an empty series.
func (s HistoricalSeries) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}
