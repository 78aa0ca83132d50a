// Package usecase implements the business logic for the persisted watchlist.
package usecase

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	mddomain "stock_terminal/internal/feature/marketdata/domain"
	mdentity "stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/watchlist/domain/entity"
)

// DefaultConcurrency bounds how many quotes a snapshot resolves at once.
const DefaultConcurrency = 4

// WatchlistRepository abstracts the persistence layer for the watchlist.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type WatchlistRepository interface {
	List(ctx context.Context) ([]entity.Item, error)
	Add(ctx context.Context, item *entity.Item) error
	Remove(ctx context.Context, symbol string) error
	Symbols(ctx context.Context) ([]string, error)
}

// Resolver abstracts the fetch coordinator.
type Resolver interface {
	Resolve(ctx context.Context, symbol string, kind mdentity.Kind) (*mdentity.Result, error)
}

// WatchlistUsecase provides business logic for watchlist operations.
type WatchlistUsecase struct {
	repo        WatchlistRepository
	resolver    Resolver
	concurrency int
}

// NewWatchlistUsecase creates a new WatchlistUsecase. A non-positive
// concurrency falls back to DefaultConcurrency.
func NewWatchlistUsecase(repo WatchlistRepository, resolver Resolver, concurrency int) *WatchlistUsecase {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &WatchlistUsecase{repo: repo, resolver: resolver, concurrency: concurrency}
}

// List returns the watched items in insertion order.
func (u *WatchlistUsecase) List(ctx context.Context) ([]entity.Item, error) {
	return u.repo.List(ctx)
}

// Add normalises symbol and adds it to the watchlist.
func (u *WatchlistUsecase) Add(ctx context.Context, symbol, note string) (entity.Item, error) {
	sym, err := mdentity.NormalizeSymbol(symbol)
	if err != nil {
		return entity.Item{}, err
	}
	item := entity.Item{Symbol: sym, Note: note}
	if err := u.repo.Add(ctx, &item); err != nil {
		return entity.Item{}, err
	}
	return item, nil
}

// Remove deletes symbol from the watchlist.
func (u *WatchlistUsecase) Remove(ctx context.Context, symbol string) error {
	sym, err := mdentity.NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return u.repo.Remove(ctx, sym)
}

// Snapshot は全銘柄の株価を並行数を制限して解決し、登録順の行を返します。
// 解決できなかった銘柄は Available=false の行になり、全体は失敗しません。
func (u *WatchlistUsecase) Snapshot(ctx context.Context) ([]entity.Row, error) {
	items, err := u.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]entity.Row, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, it := range items {
		g.Go(func() error {
			rows[i] = u.row(gctx, it)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (u *WatchlistUsecase) row(ctx context.Context, it entity.Item) entity.Row {
	row := entity.Row{Symbol: it.Symbol, Note: it.Note}
	res, err := u.resolver.Resolve(ctx, it.Symbol, mdentity.KindQuote)
	if err != nil {
		row.Error = "N/A"
		if !errors.Is(err, mddomain.ErrNoDataAvailable) {
			row.Error = err.Error()
		}
		return row
	}
	row.Available = true
	row.Quote = res.Quote
	row.Source = res.Source
	row.Stale = res.Stale
	return row
}
