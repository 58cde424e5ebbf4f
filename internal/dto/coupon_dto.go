package dto

import "github.com/shopspring/decimal"

// ValidateCouponQuery is bound from GET /v1/coupons/validate.
type ValidateCouponQuery struct {
	Code     string          `form:"code" validate:"required"`
	Subtotal decimal.Decimal `form:"subtotal" validate:"min=0"`
}

type ValidateCouponResponse struct {
	Code           string          `json:"code"`
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Reason         string          `json:"reason,omitempty"`
}
