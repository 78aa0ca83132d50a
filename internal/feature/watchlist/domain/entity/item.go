// Package entity defines the domain models for the watchlist feature.
package entity

import (
	"time"

	mdentity "stock_terminal/internal/feature/marketdata/domain/entity"
)

// Item is one watched symbol. Items are listed in insertion order.
type Item struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:10;not null;uniqueIndex"`
	Note      string    `gorm:"size:255;not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName pins the table name.
func (Item) TableName() string { return "watchlist_items" }

// Row is the live view of one item. When no data could be resolved Available
// is false and Quote is nil; the UI renders "N/A".
type Row struct {
	Symbol    string          `json:"symbol"`
	Note      string          `json:"note,omitempty"`
	Available bool            `json:"available"`
	Quote     *mdentity.Quote `json:"quote,omitempty"`
	Source    string          `json:"source,omitempty"`
	Stale     bool            `json:"stale"`
	Error     string          `json:"error,omitempty"`
}
