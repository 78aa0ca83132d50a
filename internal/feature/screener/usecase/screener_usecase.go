// Package usecase implements the screener: it walks a symbol universe through
// the fetch coordinator and keeps the symbols whose indicators match.
package usecase

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sort"

	mdentity "stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/marketdata/domain/indicator"
	"stock_terminal/internal/feature/screener/domain"
	"stock_terminal/internal/feature/screener/domain/entity"
)

// Resolver abstracts the fetch coordinator.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider.
type Resolver interface {
	Resolve(ctx context.Context, symbol string, kind mdentity.Kind) (*mdentity.Result, error)
}

// Universe is the configured set of symbols to screen.
type Universe struct {
	Default []string            `yaml:"default"`
	Sectors map[string][]string `yaml:"sectors"`
}

// Request is one screening run as submitted over HTTP or the CLI.
type Request struct {
	Symbols  []string // explicit universe, wins over Sector
	Sector   string   // configured sector universe
	Preset   string   // built-in preset, replaces Criteria and Order
	Criteria entity.Criteria
	Order    entity.Order
	Limit    int // <= 0 means no limit
}

// ScreenerUsecase はユニバースをスクリーニングします。
type ScreenerUsecase struct {
	resolver   Resolver
	params     indicator.Params
	thresholds entity.Thresholds
	universe   Universe
}

// NewScreenerUsecase は新しい ScreenerUsecase を作成します。
func NewScreenerUsecase(resolver Resolver, params indicator.Params, th entity.Thresholds, universe Universe) *ScreenerUsecase {
	return &ScreenerUsecase{resolver: resolver, params: params, thresholds: th, universe: universe}
}

// Screen はユニバースの各銘柄について履歴を解決し、指標を計算して criteria に
// 一致した候補を順に返す遅延シーケンスを返します。
//
// 銘柄は要求されたときに1つずつ解決されるため、呼び出し元が途中で反復をやめれば
// 残りの銘柄についてプロバイダーは呼ばれません。シーケンスは1回限りで、
// 再度反復すると最初から解決し直します。
//
// 指標が計算できない銘柄（履歴不足）と取得に失敗した銘柄は結果から除外されます。
func (u *ScreenerUsecase) Screen(ctx context.Context, universe []string, criteria entity.Criteria) iter.Seq[entity.Candidate] {
	return func(yield func(entity.Candidate) bool) {
		seen := make(map[string]struct{}, len(universe))
		for _, raw := range universe {
			if ctx.Err() != nil {
				return
			}
			sym, err := mdentity.NormalizeSymbol(raw)
			if err != nil {
				slog.Warn("screener skipping invalid symbol", "symbol", raw, "error", err)
				continue
			}
			if _, dup := seen[sym]; dup {
				continue
			}
			seen[sym] = struct{}{}

			cand, ok := u.evaluate(ctx, sym)
			if !ok || !criteria.Match(cand) {
				continue
			}
			if !yield(cand) {
				return
			}
		}
	}
}

// evaluate resolves sym and builds its candidate. ok is false when the symbol
// has no data or its indicators are undefined.
func (u *ScreenerUsecase) evaluate(ctx context.Context, sym string) (entity.Candidate, bool) {
	res, err := u.resolver.Resolve(ctx, sym, mdentity.KindHistory)
	if err != nil {
		slog.Warn("screener skipping symbol", "symbol", sym, "error", err)
		return entity.Candidate{}, false
	}
	snap := indicator.Compute(*res.Series, u.params)
	if !snap.Defined() {
		slog.Debug("screener skipping symbol with insufficient history", "symbol", sym, "points", snap.Points)
		return entity.Candidate{}, false
	}
	return entity.Candidate{
		Symbol:   sym,
		Signal:   entity.DeriveSignal(snap, u.thresholds),
		Snapshot: snap,
		Source:   res.Source,
		Stale:    res.Stale,
	}, true
}

// Ranked は seq から最大 limit 件を集めてから order で並べ替えます。
// limit が0以下なら全件集めます。
func Ranked(seq iter.Seq[entity.Candidate], order entity.Order, limit int) []entity.Candidate {
	out := []entity.Candidate{}
	for c := range seq {
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	order.Sort(out)
	return out
}

// Run resolves the request's universe and preset, screens and ranks.
func (u *ScreenerUsecase) Run(ctx context.Context, req Request) ([]entity.Candidate, error) {
	universe, err := u.Universe(req.Symbols, req.Sector)
	if err != nil {
		return nil, err
	}

	criteria, order := req.Criteria, req.Order
	if req.Preset != "" {
		p, err := entity.PresetByName(req.Preset, u.thresholds)
		if err != nil {
			return nil, err
		}
		criteria, order = p.Criteria, p.Order
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	return Ranked(u.Screen(ctx, universe, criteria), order, req.Limit), ctx.Err()
}

// Universe picks the symbols to screen: explicit symbols, then a sector, then the default list.
func (u *ScreenerUsecase) Universe(symbols []string, sector string) ([]string, error) {
	switch {
	case len(symbols) > 0:
		return symbols, nil
	case sector != "":
		s, ok := u.universe.Sectors[sector]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSector, sector)
		}
		return s, nil
	case len(u.universe.Default) > 0:
		return u.universe.Default, nil
	}
	return nil, domain.ErrEmptyUniverse
}

// Sectors returns the configured sector names in alphabetical order.
func (u *ScreenerUsecase) Sectors() []string {
	names := make([]string, 0, len(u.universe.Sectors))
	for n := range u.universe.Sectors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Thresholds returns the RSI thresholds used for signals and presets.
func (u *ScreenerUsecase) Thresholds() entity.Thresholds { return u.thresholds }
