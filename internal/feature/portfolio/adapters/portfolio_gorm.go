package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_terminal/internal/feature/portfolio/domain/entity"
	"stock_terminal/internal/feature/portfolio/usecase"
)

// accountID is the primary key of the single simulated account.
const accountID = 1

type portfolioGorm struct {
	db           *gorm.DB
	startingCash decimal.Decimal
}

var _ usecase.PortfolioRepository = (*portfolioGorm)(nil)

// NewPortfolioRepository returns a gorm-backed repository. The account is
// created with startingCash on first use.
func NewPortfolioRepository(db *gorm.DB, startingCash decimal.Decimal) *portfolioGorm {
	return &portfolioGorm{db: db, startingCash: startingCash}
}

// Decimal columns are stored as text so sqlite keeps every digit.

type AccountModel struct {
	ID        uint            `gorm:"primaryKey"`
	Cash      decimal.Decimal `gorm:"type:varchar(40);not null"`
	UpdatedAt time.Time
}

func (AccountModel) TableName() string {
	return "portfolio_accounts"
}

type PositionModel struct {
	ID        uint            `gorm:"primaryKey"`
	Symbol    string          `gorm:"size:10;not null;uniqueIndex"`
	Shares    int64           `gorm:"not null"`
	AvgPrice  decimal.Decimal `gorm:"type:varchar(40);not null"`
	OpenedAt  time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

func (PositionModel) TableName() string {
	return "portfolio_positions"
}

type TransactionModel struct {
	ID         uint            `gorm:"primaryKey"`
	Symbol     string          `gorm:"size:10;not null;index"`
	Action     string          `gorm:"size:4;not null"`
	Shares     int64           `gorm:"not null"`
	Price      decimal.Decimal `gorm:"type:varchar(40);not null"`
	Total      decimal.Decimal `gorm:"type:varchar(40);not null"`
	ExecutedAt time.Time       `gorm:"not null;index"`
}

func (TransactionModel) TableName() string {
	return "portfolio_transactions"
}

// Models lists the tables owned by this repository for AutoMigrate.
func Models() []any {
	return []any{&AccountModel{}, &PositionModel{}, &TransactionModel{}}
}

func toPositionModel(e entity.Position) PositionModel {
	return PositionModel{
		Symbol:    e.Symbol,
		Shares:    e.Shares,
		AvgPrice:  e.AvgPrice,
		OpenedAt:  e.OpenedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toTransactionModel(e entity.Transaction) TransactionModel {
	return TransactionModel{
		Symbol:     e.Symbol,
		Action:     string(e.Action),
		Shares:     e.Shares,
		Price:      e.Price,
		Total:      e.Total,
		ExecutedAt: e.ExecutedAt,
	}
}

// Load reads the current portfolio.
func (r *portfolioGorm) Load(ctx context.Context) (*entity.Portfolio, error) {
	var p *entity.Portfolio
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = r.load(tx, false)
		return err
	})
	return p, err
}

// Update は口座行をロックした上でポートフォリオを読み込み、fn を適用して保存します。
// fn がエラーを返した場合は何も保存されません。
func (r *portfolioGorm) Update(ctx context.Context, fn func(p *entity.Portfolio) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.load(tx, true)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		return r.save(tx, p)
	})
}

// Transactions returns the most recent trades first. A non-positive limit returns all.
func (r *portfolioGorm) Transactions(ctx context.Context, limit int) ([]entity.Transaction, error) {
	var rows []TransactionModel
	q := r.db.WithContext(ctx).Order("executed_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Transaction, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.Transaction{
			ID:         m.ID,
			Symbol:     m.Symbol,
			Action:     entity.Action(m.Action),
			Shares:     m.Shares,
			Price:      m.Price,
			Total:      m.Total,
			ExecutedAt: m.ExecutedAt,
		})
	}
	return out, nil
}

func (r *portfolioGorm) load(tx *gorm.DB, lock bool) (*entity.Portfolio, error) {
	q := tx
	if lock {
		// sqlite ignores row locks; the write transaction serialises instead.
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var acct AccountModel
	err := q.First(&acct, accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		acct = AccountModel{ID: accountID, Cash: r.startingCash}
		err = tx.Create(&acct).Error
	}
	if err != nil {
		return nil, err
	}

	var rows []PositionModel
	if err := tx.Order("symbol ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	p := entity.NewPortfolio(acct.Cash)
	for _, m := range rows {
		p.Positions[m.Symbol] = &entity.Position{
			Symbol:    m.Symbol,
			Shares:    m.Shares,
			AvgPrice:  m.AvgPrice,
			OpenedAt:  m.OpenedAt,
			UpdatedAt: m.UpdatedAt,
		}
	}
	return p, nil
}

func (r *portfolioGorm) save(tx *gorm.DB, p *entity.Portfolio) error {
	if err := tx.Model(&AccountModel{ID: accountID}).Update("cash", p.Cash).Error; err != nil {
		return err
	}

	held := make([]string, 0, len(p.Positions))
	if len(p.Positions) > 0 {
		ms := make([]PositionModel, 0, len(p.Positions))
		for _, pos := range p.Holdings() {
			ms = append(ms, toPositionModel(pos))
			held = append(held, pos.Symbol)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"shares", "avg_price", "updated_at"}),
		}).Create(&ms).Error
		if err != nil {
			return err
		}
	}

	// closed positions
	del := tx.Where("1 = 1")
	if len(held) > 0 {
		del = tx.Where("symbol NOT IN ?", held)
	}
	if err := del.Delete(&PositionModel{}).Error; err != nil {
		return err
	}

	if len(p.Pending) == 0 {
		return nil
	}
	txs := make([]TransactionModel, 0, len(p.Pending))
	for _, e := range p.Pending {
		txs = append(txs, toTransactionModel(e))
	}
	if err := tx.Create(&txs).Error; err != nil {
		return err
	}
	for i := range p.Pending {
		p.Pending[i].ID = txs[i].ID
	}
	return nil
}
