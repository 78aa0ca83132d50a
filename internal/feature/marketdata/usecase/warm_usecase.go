package usecase

import (
	"context"
	"log/slog"

	"stock_terminal/internal/feature/marketdata/domain/entity"
)

// Resolver は Coordinator.Resolve を抽象化します。
type Resolver interface {
	Resolve(ctx context.Context, symbol string, kind entity.Kind) (*entity.Result, error)
}

// warmKinds はキャッシュを温める対象のデータ種別です。
var warmKinds = []entity.Kind{entity.KindHistory, entity.KindQuote}

// WarmReport summarises one WarmAll run.
type WarmReport struct {
	Fetched int // provider responses written to the cache
	Cached  int // already fresh, no provider call
	Stale   int // every provider failed, stale entry left in place
	Failed  int // no data at all
}

// WarmUsecase はユニバースの全銘柄について Resolve を呼び、キャッシュを事前に埋めます。
// 通常の要求と同じ経路を通るため、クォータと重複排除の保証もそのまま適用されます。
type WarmUsecase struct {
	resolver Resolver
}

// NewWarmUsecase は新しい WarmUsecase を作成します。
func NewWarmUsecase(resolver Resolver) *WarmUsecase {
	return &WarmUsecase{resolver: resolver}
}

// WarmAll は指定された全銘柄の履歴と株価を解決します。
// 1つの銘柄でエラーが発生しても処理を止めずにログに出力し、次の処理を続けます。
func (wu *WarmUsecase) WarmAll(ctx context.Context, symbols []string) (WarmReport, error) {
	var rep WarmReport
	for _, s := range symbols {
		for _, kind := range warmKinds {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			res, err := wu.resolver.Resolve(ctx, s, kind)
			if err != nil {
				slog.Error("failed to warm cache", "symbol", s, "kind", kind, "error", err)
				rep.Failed++
				continue // 次のkindまたはsymbolへ
			}
			switch {
			case res.Stale:
				rep.Stale++
			case res.Source == entity.SourceCache:
				rep.Cached++
			default:
				rep.Fetched++
			}
		}
	}
	slog.Info("cache warm finished",
		"symbols", len(symbols), "fetched", rep.Fetched, "cached", rep.Cached, "stale", rep.Stale, "failed", rep.Failed)
	return rep, nil
}
