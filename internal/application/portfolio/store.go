package portfolio

import (
	"context"

	"stock-tracker-backend/internal/domain"
	"stock-tracker-backend/internal/infrastructure/database"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists holdings, sales and journal entries. Find methods return
// (nil, nil) when nothing matches.
type Store interface {
	FindHoldingBySymbol(ctx context.Context, symbol string) (*domain.Holding, error)
	FindHoldingByID(ctx context.Context, id uint) (*domain.Holding, error)
	CreateHolding(ctx context.Context, h *domain.Holding) error
	UpdateHolding(ctx context.Context, h *domain.Holding) error
	DeleteHolding(ctx context.Context, id uint) error
	CreateSale(ctx context.Context, s *domain.Sale) error
	CreateEvent(ctx context.Context, e *domain.PortfolioEvent) error
	ListHoldings(ctx context.Context) ([]domain.Holding, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	ListEvents(ctx context.Context, limit int) ([]domain.PortfolioEvent, error)
	SumSaleProfit(ctx context.Context) (decimal.Decimal, error)
	Reset(ctx context.Context) error
	// Transaction runs fn against a Store bound to one database transaction.
	// Holdings read through it are locked for update until fn returns.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore is the GORM-backed Store.
type GormStore struct {
	DB *gorm.DB

	locking bool
}

// NewGormStore returns a store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) holdings(ctx context.Context) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&domain.Holding{})
	if s.locking {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (s *GormStore) findHolding(q *gorm.DB) (*domain.Holding, error) {
	var h domain.Holding
	res := q.Limit(1).Find(&h)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &h, nil
}

func (s *GormStore) FindHoldingBySymbol(ctx context.Context, symbol string) (*domain.Holding, error) {
	return s.findHolding(s.holdings(ctx).Where("UPPER(symbol) = UPPER(?)", symbol))
}

func (s *GormStore) FindHoldingByID(ctx context.Context, id uint) (*domain.Holding, error) {
	return s.findHolding(s.holdings(ctx).Where("id = ?", id))
}

func (s *GormStore) CreateHolding(ctx context.Context, h *domain.Holding) error {
	return s.DB.WithContext(ctx).Create(h).Error
}

func (s *GormStore) UpdateHolding(ctx context.Context, h *domain.Holding) error {
	return s.DB.WithContext(ctx).Model(&domain.Holding{ID: h.ID}).Updates(map[string]interface{}{
		"quantity":      h.Quantity,
		"average_cost":  h.AverageCost,
		"purchase_date": h.PurchaseDate,
	}).Error
}

// DeleteHolding removes the holding and clears holding_id on the sales cut
// from it (ON DELETE SET NULL, done by hand so SQLite and Postgres agree).
func (s *GormStore) DeleteHolding(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Sale{}).Where("holding_id = ?", id).Update("holding_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Holding{}, id).Error
	})
}

func (s *GormStore) CreateSale(ctx context.Context, sale *domain.Sale) error {
	return s.DB.WithContext(ctx).Create(sale).Error
}

func (s *GormStore) CreateEvent(ctx context.Context, e *domain.PortfolioEvent) error {
	return s.DB.WithContext(ctx).Create(e).Error
}

func (s *GormStore) ListHoldings(ctx context.Context) ([]domain.Holding, error) {
	holdings := []domain.Holding{}
	err := s.DB.WithContext(ctx).Order("symbol ASC").Find(&holdings).Error
	return holdings, err
}

func (s *GormStore) ListSales(ctx context.Context) ([]domain.Sale, error) {
	sales := []domain.Sale{}
	err := s.DB.WithContext(ctx).Order("sale_date DESC").Order("created_at DESC").Order("id DESC").Find(&sales).Error
	return sales, err
}

func (s *GormStore) ListEvents(ctx context.Context, limit int) ([]domain.PortfolioEvent, error) {
	events := []domain.PortfolioEvent{}
	err := s.DB.WithContext(ctx).Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}

func (s *GormStore) SumSaleProfit(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := s.DB.WithContext(ctx).Model(&domain.Sale{}).Select("SUM(profit)").Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	// SQLite sums numeric columns as REAL
	return total.Decimal.Round(2), nil
}

func (s *GormStore) Reset(ctx context.Context) error {
	return database.Reset(ctx, s.DB)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx, locking: true})
	})
}
