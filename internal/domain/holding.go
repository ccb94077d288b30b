package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is an open position in one ticker symbol.
// Quantity stays positive while the row exists; a fully sold holding is deleted.
type Holding struct {
	ID           uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Symbol       string          `gorm:"column:symbol;type:varchar(20);not null;uniqueIndex" json:"symbol"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:numeric(18,4);not null" json:"quantity"`
	AverageCost  decimal.Decimal `gorm:"column:average_cost;type:numeric(18,4);not null" json:"averageCost"`
	PurchaseDate string          `gorm:"column:purchase_date;type:varchar(10)" json:"purchaseDate"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

func (Holding) TableName() string {
	return "holdings"
}

// CostBasis is quantity × average cost.
func (h Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AverageCost)
}
