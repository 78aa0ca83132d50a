// Package usecase implements the simulated trading portfolio.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	mdentity "stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/portfolio/domain"
	"stock_terminal/internal/feature/portfolio/domain/entity"
)

const markConcurrency = 4

// PortfolioRepository abstracts the persistence layer for the portfolio.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PortfolioRepository interface {
	Load(ctx context.Context) (*entity.Portfolio, error)
	// Update applies fn atomically; nothing is stored when fn fails.
	Update(ctx context.Context, fn func(p *entity.Portfolio) error) error
	Transactions(ctx context.Context, limit int) ([]entity.Transaction, error)
}

// Resolver abstracts the fetch coordinator.
type Resolver interface {
	Resolve(ctx context.Context, symbol string, kind mdentity.Kind) (*mdentity.Result, error)
}

// Order is a buy or sell request. A nil Price trades at the current quote.
type Order struct {
	Symbol string
	Shares int64
	Price  *decimal.Decimal
}

// PortfolioUsecase provides business logic for simulated trades.
type PortfolioUsecase struct {
	repo         PortfolioRepository
	resolver     Resolver
	startingCash decimal.Decimal
	now          func() time.Time

	mu sync.Mutex // serialises trades within the process
}

// NewPortfolioUsecase creates a new PortfolioUsecase.
func NewPortfolioUsecase(repo PortfolioRepository, resolver Resolver, startingCash decimal.Decimal) *PortfolioUsecase {
	return &PortfolioUsecase{repo: repo, resolver: resolver, startingCash: startingCash, now: time.Now}
}

// Buy executes a buy order.
func (u *PortfolioUsecase) Buy(ctx context.Context, o Order) (entity.Transaction, error) {
	return u.trade(ctx, o, (*entity.Portfolio).Buy)
}

// Sell executes a sell order.
func (u *PortfolioUsecase) Sell(ctx context.Context, o Order) (entity.Transaction, error) {
	return u.trade(ctx, o, (*entity.Portfolio).Sell)
}

type tradeFunc func(p *entity.Portfolio, symbol string, shares int64, price decimal.Decimal, at time.Time) (entity.Transaction, error)

func (u *PortfolioUsecase) trade(ctx context.Context, o Order, apply tradeFunc) (entity.Transaction, error) {
	sym, err := mdentity.NormalizeSymbol(o.Symbol)
	if err != nil {
		return entity.Transaction{}, err
	}
	if o.Shares <= 0 {
		return entity.Transaction{}, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, o.Shares)
	}
	price, err := u.price(ctx, sym, o.Price)
	if err != nil {
		return entity.Transaction{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	var updated *entity.Portfolio
	err = u.repo.Update(ctx, func(p *entity.Portfolio) error {
		updated = p
		_, err := apply(p, sym, o.Shares, price, u.now().UTC())
		return err
	})
	if err != nil {
		return entity.Transaction{}, err
	}
	// the repository fills in the stored ID
	tx := updated.Pending[len(updated.Pending)-1]
	slog.Info("trade executed", "symbol", sym, "action", tx.Action, "shares", tx.Shares, "price", tx.Price.String())
	return tx, nil
}

// price は明示価格があればそれを使い、なければ現在の株価を解決します。
// 古いキャッシュの株価では取引しません。
func (u *PortfolioUsecase) price(ctx context.Context, symbol string, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil {
		if !explicit.IsPositive() {
			return decimal.Decimal{}, fmt.Errorf("%w: %s", domain.ErrInvalidPrice, explicit)
		}
		return *explicit, nil
	}
	res, err := u.resolver.Resolve(ctx, symbol, mdentity.KindQuote)
	if err != nil {
		if ctx.Err() != nil {
			return decimal.Decimal{}, ctx.Err()
		}
		return decimal.Decimal{}, fmt.Errorf("%w: %s: %w", domain.ErrQuoteUnavailable, symbol, err)
	}
	if res.Stale || res.Quote == nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s: only a stale quote is cached", domain.ErrQuoteUnavailable, symbol)
	}
	return res.Quote.Price, nil
}

// Summary marks every position to market. Positions whose quote cannot be
// resolved are reported unpriced; stale quotes are used and flagged.
func (u *PortfolioUsecase) Summary(ctx context.Context) (entity.Summary, error) {
	p, err := u.repo.Load(ctx)
	if err != nil {
		return entity.Summary{}, err
	}

	holdings := p.Holdings()
	marks := make([]*entity.Mark, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(markConcurrency)
	for i, pos := range holdings {
		g.Go(func() error {
			res, err := u.resolver.Resolve(gctx, pos.Symbol, mdentity.KindQuote)
			if err != nil || res.Quote == nil {
				slog.Warn("position unpriced", "symbol", pos.Symbol, "error", err)
				return nil
			}
			marks[i] = &entity.Mark{Price: res.Quote.Price, Stale: res.Stale}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return entity.Summary{}, err
	}

	bySymbol := make(map[string]entity.Mark, len(holdings))
	for i, m := range marks {
		if m != nil {
			bySymbol[holdings[i].Symbol] = *m
		}
	}
	return p.Value(bySymbol, u.startingCash), nil
}

// Position returns the held position for symbol.
func (u *PortfolioUsecase) Position(ctx context.Context, symbol string) (entity.Position, error) {
	sym, err := mdentity.NormalizeSymbol(symbol)
	if err != nil {
		return entity.Position{}, err
	}
	p, err := u.repo.Load(ctx)
	if err != nil {
		return entity.Position{}, err
	}
	pos, ok := p.Positions[sym]
	if !ok {
		return entity.Position{}, fmt.Errorf("%w: %s", domain.ErrNotFound, sym)
	}
	return *pos, nil
}

// Transactions returns the trade log, most recent first.
func (u *PortfolioUsecase) Transactions(ctx context.Context, limit int) ([]entity.Transaction, error) {
	return u.repo.Transactions(ctx, limit)
}
