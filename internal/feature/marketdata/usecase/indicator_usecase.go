package usecase

import (
	"context"

	"stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/marketdata/domain/indicator"
)

// IndicatorUsecase は履歴を解決し、テクニカル指標を計算します。
// 指標はキャッシュせず、毎回（キャッシュ済みかもしれない）系列から再計算します。
type IndicatorUsecase struct {
	resolver Resolver
	params   indicator.Params
}

// NewIndicatorUsecase は新しい IndicatorUsecase を作成します。
func NewIndicatorUsecase(resolver Resolver, params indicator.Params) *IndicatorUsecase {
	return &IndicatorUsecase{resolver: resolver, params: params}
}

// Indicators returns the history result it computed from together with the snapshot.
func (u *IndicatorUsecase) Indicators(ctx context.Context, symbol string) (*entity.Result, indicator.Snapshot, error) {
	res, err := u.resolver.Resolve(ctx, symbol, entity.KindHistory)
	if err != nil {
		return nil, indicator.Snapshot{}, err
	}
	return res, indicator.Compute(*res.Series, u.params), nil
}
