package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every stock change on a product. Created
// automatically by PDV finalization, webhook reconciliation and manual
// adjustments. Movements are never modified or deleted.
type StockMovement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Type          string    `gorm:"not null"` // "sale" | "webhook_sale" | "manual_adjustment"
	Quantity      int       `gorm:"not null"` // positive = in, negative = out
	PreviousStock int       `gorm:"not null"`
	NewStock      int       `gorm:"not null"`
	Reason        string
	ReferenceID   *uuid.UUID `gorm:"type:uuid"` // sale_id when applicable
	CreatedAt     time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
