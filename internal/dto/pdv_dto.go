package dto

import (
	"github.com/shopspring/decimal"

	"hpmarcas/internal/cart"
)

// ─── PDV sale finalization ───────────────────────────────────────────────────

type PDVItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	VolumeID  *string `json:"volume_id,omitempty" validate:"omitempty,uuid"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	// DiscountPercent and DiscountAmount apply an item-level discount;
	// ManualPrice overrides the tier price outright. Last writer wins —
	// sending both is rejected.
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount,omitempty"`
	ManualPrice     *decimal.Decimal `json:"manual_price,omitempty"`
}

type FinalizePDVSaleRequest struct {
	SessionID  string           `json:"session_id"  validate:"required"`
	CustomerID string           `json:"customer_id" validate:"required,uuid"`
	Items      []PDVItemRequest `json:"items" validate:"required,min=1,dive"`
	// Order-level flat percentage discount applied by the cashier.
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"min=0,max=100"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	PaymentMethod   string          `json:"payment_method" validate:"required,oneof=cash debit_card credit_card pix"`
	// AmountPaid is required for cash — change is computed server-side.
	AmountPaid *decimal.Decimal `json:"amount_paid,omitempty"`
}

type PDVSaleResponse struct {
	ID             string              `json:"id"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"payment_status"`
	PaymentMethod  string              `json:"payment_method"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	Total          decimal.Decimal     `json:"total"`
	Change         decimal.Decimal     `json:"change"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      string              `json:"created_at"`
}

// ─── PDV cart draft (crash recovery) ────────────────────────────────────────

type SaveDraftRequest struct {
	Cart cart.Cart `json:"cart" validate:"required"`
}

type DraftResponse struct {
	SessionID string     `json:"session_id"`
	Cart      *cart.Cart `json:"cart,omitempty"`
	// Restored is true exactly once: the first load after an interrupted
	// session. Acknowledged by the same call.
	Restored bool `json:"restored"`
}
