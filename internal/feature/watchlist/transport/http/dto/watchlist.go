// Package dto defines the request and response bodies of the watchlist API.
package dto

import (
	"time"

	"stock_terminal/internal/feature/watchlist/domain/entity"
)

// AddRequest is the body of POST /watchlist.
type AddRequest struct {
	Symbol string `json:"symbol" binding:"required,max=10"`
	Note   string `json:"note" binding:"max=255"`
}

// ItemResponse is one persisted watchlist entry.
type ItemResponse struct {
	Symbol  string    `json:"symbol"`
	Note    string    `json:"note,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// ListResponse wraps the watchlist entries.
type ListResponse struct {
	Items []ItemResponse `json:"items"`
}

// SnapshotResponse wraps the live rows.
type SnapshotResponse struct {
	Rows []entity.Row `json:"rows"`
}

// NewItemResponse converts an entity.Item.
func NewItemResponse(it entity.Item) ItemResponse {
	return ItemResponse{Symbol: it.Symbol, Note: it.Note, AddedAt: it.CreatedAt}
}

// NewListResponse converts the items, always producing a non-nil slice.
func NewListResponse(items []entity.Item) ListResponse {
	out := ListResponse{Items: make([]ItemResponse, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, NewItemResponse(it))
	}
	return out
}
