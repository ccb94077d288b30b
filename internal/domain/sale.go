package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable realized-profit record cut from a holding.
// HoldingID is nil once the originating holding has been fully liquidated.
type Sale struct {
	ID           uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	HoldingID    *uint           `gorm:"column:holding_id;index" json:"holdingId"`
	Symbol       string          `gorm:"column:symbol;type:varchar(20);not null;index" json:"symbol"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:numeric(18,4);not null" json:"quantity"`
	SalePrice    decimal.Decimal `gorm:"column:sale_price;type:numeric(18,4);not null" json:"salePrice"`
	Proceeds     decimal.Decimal `gorm:"column:proceeds;type:numeric(18,2);not null" json:"proceeds"`
	Profit       decimal.Decimal `gorm:"column:profit;type:numeric(18,2);not null" json:"profit"`
	PurchaseDate string          `gorm:"column:purchase_date;type:varchar(10)" json:"purchaseDate"`
	SaleDate     string          `gorm:"column:sale_date;type:varchar(10);not null;index" json:"saleDate"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"createdAt"`
}

func (Sale) TableName() string {
	return "sales"
}
