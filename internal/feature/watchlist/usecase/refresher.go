package usecase

import (
	"context"
	"log/slog"

	"stock_terminal/internal/feature/watchlist/domain/entity"
)

// EventWatchlist is the event name published after each refresh.
const EventWatchlist = "watchlist"

// Publisher pushes events to connected clients.
type Publisher interface {
	Publish(event string, payload any) error
}

// Snapshotter produces the current watchlist rows.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]entity.Row, error)
}

// Refresher は定期更新のジョブです。対話的な要求と同じ Resolve 経路を通るため、
// クォータと重複排除の保証は同じように適用されます。
type Refresher struct {
	source Snapshotter
	pub    Publisher
}

// NewRefresher creates a Refresher.
func NewRefresher(source Snapshotter, pub Publisher) *Refresher {
	return &Refresher{source: source, pub: pub}
}

// Refresh takes a snapshot and publishes it.
func (r *Refresher) Refresh(ctx context.Context) error {
	rows, err := r.source.Snapshot(ctx)
	if err != nil {
		return err
	}
	available := 0
	for _, row := range rows {
		if row.Available {
			available++
		}
	}
	slog.Info("watchlist refreshed", "symbols", len(rows), "available", available)
	return r.pub.Publish(EventWatchlist, rows)
}
