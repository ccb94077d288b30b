package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Journal event types.
const (
	EventPurchaseCreated = "PURCHASE_CREATED"
	EventPurchaseMerged  = "PURCHASE_MERGED"
	EventSaleExecuted    = "SALE_EXECUTED"
	EventHoldingClosed   = "HOLDING_CLOSED"
)

// PortfolioEvent is an append-only journal entry written alongside each mutation.
type PortfolioEvent struct {
	ID        uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EventType string         `gorm:"column:event_type;type:varchar(30);not null;index" json:"eventType"`
	Symbol    string         `gorm:"column:symbol;type:varchar(20);not null" json:"symbol"`
	HoldingID *uint          `gorm:"column:holding_id" json:"holdingId"`
	EventData datatypes.JSON `gorm:"column:event_data;not null" json:"eventData"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"createdAt"`
}

func (PortfolioEvent) TableName() string {
	return "portfolio_events"
}
