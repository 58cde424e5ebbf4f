// Package discount implements the order-level discount engine: flat
// percentage discounts and coupon evaluation. Coupon invalidity is never an
// error — an ineligible coupon contributes zero discount and a reason the
// caller may surface as a warning.
package discount

import (
	"time"

	"github.com/shopspring/decimal"

	"hpmarcas/internal/model"
	"hpmarcas/internal/pricing"
)

// Result is the outcome of evaluating an order-level discount.
type Result struct {
	Amount decimal.Decimal
	// Reason is empty when the discount applied; otherwise it explains why
	// the amount is zero (expired, exhausted, below minimum, …).
	Reason string
}

// OrderPercent computes a flat order-level percentage discount.
func OrderPercent(subtotal, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() || subtotal.IsZero() {
		return decimal.Zero
	}
	return pricing.PercentOf(subtotal, pct)
}

// EvaluateCoupon validates eligibility and computes the coupon discount for a
// subtotal at a point in time. All conditions must hold: active, now within
// [start, end] (nil end = open-ended), used_count < usage_limit (nil =
// unlimited), subtotal >= min_order_value (nil = no minimum).
func EvaluateCoupon(c *model.Coupon, subtotal decimal.Decimal, now time.Time) Result {
	if c == nil {
		return Result{Amount: decimal.Zero, Reason: "cupom não encontrado"}
	}
	if !c.Active {
		return Result{Amount: decimal.Zero, Reason: "cupom inativo"}
	}
	if now.Before(c.StartDate) {
		return Result{Amount: decimal.Zero, Reason: "cupom ainda não vigente"}
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return Result{Amount: decimal.Zero, Reason: "cupom expirado"}
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return Result{Amount: decimal.Zero, Reason: "cupom esgotado"}
	}
	if c.MinOrderValue != nil && subtotal.LessThan(*c.MinOrderValue) {
		return Result{Amount: decimal.Zero, Reason: "pedido abaixo do valor mínimo do cupom"}
	}

	var amount decimal.Decimal
	switch c.Type {
	case model.CouponPercentage:
		amount = pricing.PercentOf(subtotal, c.Value)
		if c.MaxDiscount != nil && amount.GreaterThan(*c.MaxDiscount) {
			amount = pricing.Round2(*c.MaxDiscount)
		}
	case model.CouponFixed:
		amount = pricing.Round2(c.Value)
	default:
		return Result{Amount: decimal.Zero, Reason: "tipo de cupom desconhecido"}
	}

	// A discount never exceeds the subtotal — totals cannot go negative.
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return Result{Amount: amount}
}
