package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mddomain "stock_terminal/internal/feature/marketdata/domain"
	mdentity "stock_terminal/internal/feature/marketdata/domain/entity"
	"stock_terminal/internal/feature/watchlist/domain"
	"stock_terminal/internal/feature/watchlist/domain/entity"
)

// mockWatchlistRepository is a mock implementation of the WatchlistRepository interface.
type mockWatchlistRepository struct {
	items      []entity.Item
	AddFunc    func(ctx context.Context, item *entity.Item) error
	RemoveFunc func(ctx context.Context, symbol string) error
	ListErr    error
}

func (m *mockWatchlistRepository) List(ctx context.Context) ([]entity.Item, error) {
	return m.items, m.ListErr
}

func (m *mockWatchlistRepository) Add(ctx context.Context, item *entity.Item) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, item)
	}
	item.ID = uint(len(m.items) + 1)
	m.items = append(m.items, *item)
	return nil
}

func (m *mockWatchlistRepository) Remove(ctx context.Context, symbol string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, symbol)
	}
	return nil
}

func (m *mockWatchlistRepository) Symbols(ctx context.Context) ([]string, error) {
	out := make([]string, len(m.items))
	for i, it := range m.items {
		out[i] = it.Symbol
	}
	return out, nil
}

// mockResolver is a mock implementation of the Resolver interface.
type mockResolver struct {
	ResolveFunc func(ctx context.Context, symbol string, kind mdentity.Kind) (*mdentity.Result, error)
}

func (m *mockResolver) Resolve(ctx context.Context, symbol string, kind mdentity.Kind) (*mdentity.Result, error) {
	return m.ResolveFunc(ctx, symbol, kind)
}

func quoteResult(symbol string, price string) *mdentity.Result {
	return &mdentity.Result{
		Symbol: symbol, Kind: mdentity.KindQuote, Source: "finnhub",
		Quote: &mdentity.Quote{Symbol: symbol, Price: decimal.RequireFromString(price), Timestamp: time.Now()},
	}
}

func TestWatchlistUsecase_Add(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		symbol     string
		addFunc    func(ctx context.Context, item *entity.Item) error
		wantSymbol string
		wantErr    error
	}{
		{name: "success: normalised", symbol: " aapl ", wantSymbol: "AAPL"},
		{name: "error: invalid symbol", symbol: "not a symbol", wantErr: mddomain.ErrInvalidSymbol},
		{
			name:   "error: duplicate",
			symbol: "MSFT",
			addFunc: func(ctx context.Context, item *entity.Item) error {
				return domain.ErrAlreadyExists
			},
			wantErr: domain.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u := NewWatchlistUsecase(&mockWatchlistRepository{AddFunc: tt.addFunc}, &mockResolver{}, 0)
			item, err := u.Add(context.Background(), tt.symbol, "note")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSymbol, item.Symbol)
			assert.Equal(t, "note", item.Note)
		})
	}
}

func TestWatchlistUsecase_Remove(t *testing.T) {
	t.Parallel()

	var got string
	repo := &mockWatchlistRepository{RemoveFunc: func(ctx context.Context, symbol string) error {
		got = symbol
		return nil
	}}
	u := NewWatchlistUsecase(repo, &mockResolver{}, 0)

	require.NoError(t, u.Remove(context.Background(), "nvda"))
	assert.Equal(t, "NVDA", got)
	assert.ErrorIs(t, u.Remove(context.Background(), ""), mddomain.ErrInvalidSymbol)
}

func TestWatchlistUsecase_Snapshot(t *testing.T) {
	t.Parallel()

	repo := &mockWatchlistRepository{items: []entity.Item{
		{ID: 1, Symbol: "AAPL"}, {ID: 2, Symbol: "ZZZZ", Note: "delisted"}, {ID: 3, Symbol: "MSFT"}, {ID: 4, Symbol: "BUG"},
	}}
	r := &mockResolver{ResolveFunc: func(ctx context.Context, symbol string, kind mdentity.Kind) (*mdentity.Result, error) {
		assert.Equal(t, mdentity.KindQuote, kind)
		switch symbol {
		case "AAPL":
			return quoteResult(symbol, "189.5"), nil
		case "MSFT":
			res := quoteResult(symbol, "410")
			res.Source, res.Stale = mdentity.SourceCache, true
			return res, nil
		case "BUG":
			return nil, errors.New("disk on fire")
		}
		return nil, mddomain.ErrNoDataAvailable
	}}
	u := NewWatchlistUsecase(repo, r, 2)

	rows, err := u.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// insertion order is kept regardless of completion order
	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.True(t, rows[0].Available)
	assert.Equal(t, "189.5", rows[0].Quote.Price.String())

	assert.Equal(t, "ZZZZ", rows[1].Symbol)
	assert.False(t, rows[1].Available)
	assert.Nil(t, rows[1].Quote)
	assert.Equal(t, "N/A", rows[1].Error)
	assert.Equal(t, "delisted", rows[1].Note)

	assert.True(t, rows[2].Stale)
	assert.Equal(t, mdentity.SourceCache, rows[2].Source)

	assert.False(t, rows[3].Available)
	assert.Equal(t, "disk on fire", rows[3].Error)
}

func TestWatchlistUsecase_Snapshot_BoundedConcurrency(t *testing.T) {
	t.Parallel()

	items := make([]entity.Item, 12)
	for i := range items {
		items[i] = entity.Item{ID: uint(i + 1), Symbol: "S" + string(rune('A'+i))}
	}

	var inFlight, peak atomic.Int32
	var mu sync.Mutex
	r := &mockResolver{ResolveFunc: func(ctx context.Context, symbol string, kind mdentity.Kind) (*mdentity.Result, error) {
		n := inFlight.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return quoteResult(symbol, "1"), nil
	}}
	u := NewWatchlistUsecase(&mockWatchlistRepository{items: items}, r, 3)

	rows, err := u.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 12)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestWatchlistUsecase_Snapshot_RepositoryError(t *testing.T) {
	t.Parallel()

	u := NewWatchlistUsecase(&mockWatchlistRepository{ListErr: errors.New("db down")}, &mockResolver{}, 0)
	_, err := u.Snapshot(context.Background())
	assert.EqualError(t, err, "db down")
}

// mockPublisher records published events.
type mockPublisher struct {
	events   []string
	payloads []any
	err      error
}

func (m *mockPublisher) Publish(event string, payload any) error {
	m.events = append(m.events, event)
	m.payloads = append(m.payloads, payload)
	return m.err
}

func TestRefresher_Refresh(t *testing.T) {
	t.Parallel()

	repo := &mockWatchlistRepository{items: []entity.Item{{ID: 1, Symbol: "AAPL"}}}
	r := &mockResolver{ResolveFunc: func(ctx context.Context, symbol string, kind mdentity.Kind) (*mdentity.Result, error) {
		return quoteResult(symbol, "190"), nil
	}}
	pub := &mockPublisher{}
	ref := NewRefresher(NewWatchlistUsecase(repo, r, 0), pub)

	require.NoError(t, ref.Refresh(context.Background()))
	require.Equal(t, []string{EventWatchlist}, pub.events)
	rows := pub.payloads[0].([]entity.Row)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Available)
}

func TestRefresher_Refresh_SnapshotError(t *testing.T) {
	t.Parallel()

	pub := &mockPublisher{}
	ref := NewRefresher(NewWatchlistUsecase(&mockWatchlistRepository{ListErr: errors.New("db down")}, &mockResolver{}, 0), pub)

	assert.Error(t, ref.Refresh(context.Background()))
	assert.Empty(t, pub.events)
}
