package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product carries both pricing tiers. Stock is the authoritative on-hand
// count; MinStock is a reorder signal, never enforced as a hard floor.
type Product struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU            string    `gorm:"uniqueIndex;not null"`
	Barcode        string    `gorm:"uniqueIndex;not null"`
	Name           string    `gorm:"index;not null"`
	Description    *string
	Brand          string
	Category       string          `gorm:"not null"`
	Cost           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RetailPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	WholesalePrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock          int             `gorm:"not null;default:0"`
	MinStock       int             `gorm:"not null;default:5"`
	Status         string          `gorm:"type:varchar(20);not null;default:'active'"` // active | inactive
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Volumes []Volume `gorm:"foreignKey:ProductID"`
}

// TierPrice returns the unit price for a customer tier, before any volume
// adjustment or discount.
func (p *Product) TierPrice(customerType string) decimal.Decimal {
	if customerType == CustomerWholesale {
		return p.WholesalePrice
	}
	return p.RetailPrice
}

// Volume is a purchasable variant of a product (e.g. 50ml vs 100ml) with its
// own barcode. PriceAdjustment is additive to the tier price, never
// multiplicative.
type Volume struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Size            string          `gorm:"not null"`
	Unit            string          `gorm:"not null;default:'ml'"`
	PriceAdjustment decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Barcode         string          `gorm:"uniqueIndex;not null"`
	CreatedAt       time.Time
}
