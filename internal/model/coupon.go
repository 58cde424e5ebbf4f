package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon types.
const (
	CouponPercentage = "percentage"
	CouponFixed      = "fixed"
)

// Coupon is an order-level discount instrument with eligibility and usage
// constraints. EndDate nil = open-ended; UsageLimit nil = unlimited;
// MinOrderValue nil = no minimum; MaxDiscount nil = uncapped percentage.
type Coupon struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code          string           `gorm:"uniqueIndex;not null"`
	Type          string           `gorm:"type:varchar(20);not null"` // percentage | fixed
	Value         decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MaxDiscount   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MinOrderValue *decimal.Decimal `gorm:"type:decimal(12,2)"`
	UsageLimit    *int
	UsedCount     int       `gorm:"not null;default:0"`
	StartDate     time.Time `gorm:"not null"`
	EndDate       *time.Time
	Active        bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CouponUsage records which order consumed which coupon, for audit and
// double-spend prevention.
type CouponUsage struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CouponID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time
}
