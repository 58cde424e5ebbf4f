package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale sources.
const (
	SourceEcommerce = "ecommerce"
	SourcePDV       = "pdv"
)

// Sale is a persisted, priced transaction record — online checkout or
// in-person PDV. Monetary fields are immutable after creation: the webhook
// reconciler only ever touches the status columns and the payment snapshot.
// Invariant: Total = Subtotal - DiscountAmount + ShippingCost, 2 decimals.
type Sale struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	AddressID         *uuid.UUID      `gorm:"type:uuid"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountPercent   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ShippingCost      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ShippingMethod    *string
	Total             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CouponCode        *string
	PaymentMethod     string       `gorm:"type:varchar(30)"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Status            OrderStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
	OrderSource       string        `gorm:"type:varchar(20);not null"` // ecommerce | pdv
	PaymentExternalID *string       `gorm:"index"`
	// PaymentMethodDetail is an opaque snapshot of the gateway payload at the
	// time of the last reconciliation — kept for audit, never interpreted.
	PaymentMethodDetail *string `gorm:"type:jsonb"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Items    []SaleItem `gorm:"foreignKey:SaleID"`
	Customer *Customer  `gorm:"foreignKey:CustomerID"`
}

// SaleItem is a denormalized snapshot of the product at sale time, so
// historical orders are immune to later price and name edits.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"not null"`
	ProductSKU  string          `gorm:"not null"`
	VolumeID    *uuid.UUID      `gorm:"type:uuid"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time
}
