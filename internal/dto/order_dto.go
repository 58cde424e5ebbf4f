package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
	// VolumeID selects a variant; its price adjustment is additive to the
	// tier price.
	VolumeID *string `json:"volume,omitempty" validate:"omitempty,uuid"`
}

type CreateOrderRequest struct {
	CustomerID        string             `json:"customer_id"         validate:"required,uuid"`
	ShippingAddressID string             `json:"shipping_address_id" validate:"required,uuid"`
	ShippingCost      decimal.Decimal    `json:"shipping_cost"       validate:"min=0"`
	ShippingMethod    *string            `json:"shipping_method,omitempty"`
	CouponCode        *string            `json:"coupon_code,omitempty"`
	Items             []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type OrderResponse struct {
	ID                  string              `json:"id"`
	Status              string              `json:"status"`
	PaymentStatus       string              `json:"payment_status"`
	SubtotalAmount      decimal.Decimal     `json:"subtotal_amount"`
	CouponDiscount      decimal.Decimal     `json:"coupon_discount"`
	ShippingCost        decimal.Decimal     `json:"shipping_cost"`
	TotalAmount         decimal.Decimal     `json:"total_amount"`
	CouponCode          *string             `json:"coupon_code,omitempty"`
	CouponWarning       string              `json:"coupon_warning,omitempty"`
	PaymentExternalID   *string             `json:"payment_external_id,omitempty"`
	PaymentPreferenceID string              `json:"payment_preference_id,omitempty"`
	PaymentSetupError   string              `json:"payment_setup_error,omitempty"`
	Items               []OrderItemResponse `json:"items"`
	CreatedAt           string              `json:"created_at"`
}
