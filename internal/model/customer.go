package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer tier selectors. Every priced item resolves its unit price
// according to the customer's type.
const (
	CustomerRetail    = "retail"
	CustomerWholesale = "wholesale"
)

// Customer is created on registration or guest checkout. Type is changed
// only by admin action.
type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Phone     *string
	Type      string `gorm:"type:varchar(20);not null;default:'retail'"` // retail | wholesale
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Addresses []Address `gorm:"foreignKey:CustomerID"`
}

// Address is a shipping address owned by a customer. CEP lookup and
// normalization happen upstream — the backend stores whatever the
// storefront submits.
type Address struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Street     string    `gorm:"not null"`
	Number     string
	Complement *string
	District   string
	City       string `gorm:"not null"`
	State      string `gorm:"type:varchar(2);not null"`
	ZipCode    string `gorm:"type:varchar(9);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
