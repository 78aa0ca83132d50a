// Package adapters はwatchlistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"stock_terminal/internal/feature/watchlist/domain"
	"stock_terminal/internal/feature/watchlist/domain/entity"
	"stock_terminal/internal/feature/watchlist/usecase"
)

// watchlistGorm はWatchlistRepositoryインターフェースのGORM実装です。
type watchlistGorm struct {
	db *gorm.DB
}

var _ usecase.WatchlistRepository = (*watchlistGorm)(nil)

// NewWatchlistRepository は指定されたDB接続でwatchlistGormリポジトリの新しいインスタンスを生成します。
func NewWatchlistRepository(db *gorm.DB) *watchlistGorm {
	return &watchlistGorm{db: db}
}

// List は登録順にすべての銘柄を返します。
func (r *watchlistGorm) List(ctx context.Context) ([]entity.Item, error) {
	var items []entity.Item
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Add は銘柄を追加します。既に登録済みの場合は domain.ErrAlreadyExists を返します。
func (r *watchlistGorm) Add(ctx context.Context, item *entity.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&entity.Item{}).Where("symbol = ?", item.Symbol).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, item.Symbol)
		}
		if err := tx.Create(item).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, item.Symbol)
			}
			return err
		}
		return nil
	})
}

// Remove は銘柄を削除します。登録されていない場合は domain.ErrNotFound を返します。
func (r *watchlistGorm) Remove(ctx context.Context, symbol string) error {
	res := r.db.WithContext(ctx).Where("symbol = ?", symbol).Delete(&entity.Item{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, symbol)
	}
	return nil
}

// Symbols は登録順に銘柄コードのみを返します。
func (r *watchlistGorm) Symbols(ctx context.Context) ([]string, error) {
	var symbols []string
	if err := r.db.WithContext(ctx).
		Model(&entity.Item{}).
		Order("id ASC").
		Pluck("symbol", &symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}
