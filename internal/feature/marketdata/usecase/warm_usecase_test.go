package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_terminal/internal/feature/marketdata/domain"
	"stock_terminal/internal/feature/marketdata/domain/entity"
)

// mockResolver is a mock implementation of the Resolver interface.
type mockResolver struct {
	ResolveFunc  func(ctx context.Context, symbol string, kind entity.Kind) (*entity.Result, error)
	ResolveCalls int
}

func (m *mockResolver) Resolve(ctx context.Context, symbol string, kind entity.Kind) (*entity.Result, error) {
	m.ResolveCalls++
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, symbol, kind)
	}
	return nil, fmt.Errorf("ResolveFunc is not implemented")
}

func TestWarmUsecase_WarmAll(t *testing.T) {
	t.Parallel()

	r := &mockResolver{
		ResolveFunc: func(ctx context.Context, symbol string, kind entity.Kind) (*entity.Result, error) {
			switch symbol {
			case "AAPL":
				return &entity.Result{Symbol: symbol, Kind: kind, Source: "finnhub"}, nil
			case "MSFT":
				return &entity.Result{Symbol: symbol, Kind: kind, Source: entity.SourceCache}, nil
			case "NVDA":
				return &entity.Result{Symbol: symbol, Kind: kind, Source: entity.SourceCache, Stale: true}, nil
			}
			return nil, domain.ErrNoDataAvailable
		},
	}
	wu := NewWarmUsecase(r)

	rep, err := wu.WarmAll(context.Background(), []string{"AAPL", "MSFT", "NVDA", "ZZZZ"})
	require.NoError(t, err)

	// one failing symbol does not stop the rest
	assert.Equal(t, 8, r.ResolveCalls)
	assert.Equal(t, WarmReport{Fetched: 2, Cached: 2, Stale: 2, Failed: 2}, rep)
}

func TestWarmUsecase_WarmAll_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	r := &mockResolver{
		ResolveFunc: func(ctx context.Context, symbol string, kind entity.Kind) (*entity.Result, error) {
			cancel()
			return &entity.Result{Symbol: symbol, Kind: kind, Source: "finnhub"}, nil
		},
	}

	rep, err := NewWarmUsecase(r).WarmAll(ctx, []string{"AAPL", "MSFT"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, r.ResolveCalls)
	assert.Equal(t, 1, rep.Fetched)
}
