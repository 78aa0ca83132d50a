package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock_terminal/internal/feature/portfolio/domain"
	"stock_terminal/internal/feature/portfolio/domain/entity"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// :memory: is per connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(Models()...)
	require.NoError(t, err, "failed to migrate tables")

	return db
}

var (
	cash100k = decimal.NewFromInt(100_000)
	tradedAt = time.Date(2024, 6, 5, 15, 30, 0, 0, time.UTC)
)

func TestNewPortfolioRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewPortfolioRepository(db, cash100k)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestPortfolioGorm_Load_CreatesAccount(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPortfolioRepository(db, cash100k)

	p, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, p.Cash.Equal(cash100k))
	assert.Empty(t, p.Positions)

	var n int64
	require.NoError(t, db.Model(&AccountModel{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	// second load reuses the row
	_, err = repo.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Model(&AccountModel{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestPortfolioGorm_Update(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPortfolioRepository(db, cash100k)
	ctx := context.Background()

	err := repo.Update(ctx, func(p *entity.Portfolio) error {
		if _, err := p.Buy("AAPL", 10, decimal.RequireFromString("189.55"), tradedAt); err != nil {
			return err
		}
		_, err := p.Buy("MSFT", 2, decimal.NewFromInt(400), tradedAt)
		return err
	})
	require.NoError(t, err)

	p, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "97304.5", p.Cash.String())
	require.Len(t, p.Positions, 2)
	assert.Equal(t, "189.55", p.Positions["AAPL"].AvgPrice.String())
	assert.True(t, p.Positions["AAPL"].OpenedAt.Equal(tradedAt))

	// upsert existing position and close another
	err = repo.Update(ctx, func(p *entity.Portfolio) error {
		if _, err := p.Buy("AAPL", 10, decimal.RequireFromString("190.45"), tradedAt.Add(time.Hour)); err != nil {
			return err
		}
		_, err := p.Sell("MSFT", 2, decimal.NewFromInt(410), tradedAt.Add(time.Hour))
		return err
	})
	require.NoError(t, err)

	p, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, p.Positions, 1)
	aapl := p.Positions["AAPL"]
	assert.Equal(t, int64(20), aapl.Shares)
	assert.Equal(t, "190", aapl.AvgPrice.String())
	assert.True(t, aapl.OpenedAt.Equal(tradedAt), "opened_at survives the upsert")

	txs, err := repo.Transactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, txs, 4)
	assert.Equal(t, entity.ActionSell, txs[0].Action, "most recent first")
	assert.NotZero(t, txs[0].ID)

	limited, err := repo.Transactions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPortfolioGorm_Update_Rollback(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewPortfolioRepository(db, decimal.NewFromInt(1000))
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Update(ctx, func(p *entity.Portfolio) error {
		if _, err := p.Buy("AAPL", 1, decimal.NewFromInt(100), tradedAt); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = repo.Update(ctx, func(p *entity.Portfolio) error {
		_, err := p.Buy("AAPL", 100, decimal.NewFromInt(100), tradedAt)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCash)

	p, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", p.Cash.String())
	assert.Empty(t, p.Positions)

	txs, err := repo.Transactions(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}
