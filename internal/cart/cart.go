// Package cart is the mutable working set shared by online checkout and the
// PDV: items, customer, discount state and a draft payment method. It is a
// pure state container — persistence and gateway calls live in the service
// layer. Every mutation recomputes the monetary totals.
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hpmarcas/internal/discount"
	"hpmarcas/internal/model"
	"hpmarcas/internal/pricing"
)

// Item is a cart-resident sale line, mutable until finalized.
type Item struct {
	ProductID   uuid.UUID  `json:"product_id"`
	VolumeID    *uuid.UUID `json:"volume_id,omitempty"`
	ProductName string     `json:"product_name"`
	ProductSKU  string     `json:"product_sku"`
	Quantity    int        `json:"quantity"`
	// UnitPrice is the resolved tier price plus the volume adjustment.
	UnitPrice decimal.Decimal `json:"unit_price"`
	// Item discount: percent or fixed amount per line. Mutually exclusive
	// with ManualPrice — applying one clears the other.
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount,omitempty"`
	// ManualPrice is an absolute override that supersedes tier and discount
	// pricing outright.
	ManualPrice *decimal.Decimal `json:"manual_price,omitempty"`
}

// EffectiveUnitPrice resolves the per-unit price after the manual override.
func (i *Item) EffectiveUnitPrice() decimal.Decimal {
	if i.ManualPrice != nil {
		return pricing.Round2(*i.ManualPrice)
	}
	return pricing.Round2(i.UnitPrice)
}

// Subtotal is unit price × quantity net of the item discount, floored at 0.
func (i *Item) Subtotal() decimal.Decimal {
	gross := pricing.MulQty(i.EffectiveUnitPrice(), i.Quantity)
	if i.ManualPrice != nil {
		return gross
	}
	if i.DiscountPercent != nil {
		return pricing.ApplyPercentDiscount(gross, *i.DiscountPercent)
	}
	if i.DiscountAmount != nil {
		net := pricing.Sub(gross, *i.DiscountAmount)
		if net.IsNegative() {
			return decimal.Zero
		}
		return net
	}
	return gross
}

// Totals is the computed monetary state of the cart.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	CouponWarning   string          `json:"coupon_warning,omitempty"`
}

// Cart is keyed by a session identifier so an interrupted PDV sale can be
// recovered from the draft store.
type Cart struct {
	SessionID    string    `json:"session_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerType string    `json:"customer_type"` // retail | wholesale
	Items        []Item    `json:"items"`
	// Order-level flat percentage discount (cashier-applied).
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
}

// New creates an empty cart for a customer tier.
func New(sessionID string, customerID uuid.UUID, customerType string) *Cart {
	return &Cart{SessionID: sessionID, CustomerID: customerID, CustomerType: customerType}
}

// AddItem appends a line, or merges quantity into an existing line for the
// same product+volume.
func (c *Cart) AddItem(item Item) {
	for idx := range c.Items {
		ex := &c.Items[idx]
		if ex.ProductID == item.ProductID && equalVolume(ex.VolumeID, item.VolumeID) {
			ex.Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets a line's quantity; qty <= 0 removes the line.
func (c *Cart) UpdateQuantity(productID uuid.UUID, volumeID *uuid.UUID, qty int) {
	for idx := range c.Items {
		ex := &c.Items[idx]
		if ex.ProductID == productID && equalVolume(ex.VolumeID, volumeID) {
			if qty <= 0 {
				c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			} else {
				ex.Quantity = qty
			}
			return
		}
	}
}

// RemoveItem drops a line.
func (c *Cart) RemoveItem(productID uuid.UUID, volumeID *uuid.UUID) {
	c.UpdateQuantity(productID, volumeID, 0)
}

// ApplyItemDiscount sets an item-level discount and clears any manual price
// override (last writer wins).
func (c *Cart) ApplyItemDiscount(idx int, percent, amount *decimal.Decimal) {
	if idx < 0 || idx >= len(c.Items) {
		return
	}
	it := &c.Items[idx]
	it.ManualPrice = nil
	it.DiscountPercent = percent
	it.DiscountAmount = amount
}

// ApplyManualPrice overrides an item's unit price and clears its discount
// (last writer wins).
func (c *Cart) ApplyManualPrice(idx int, price decimal.Decimal) {
	if idx < 0 || idx >= len(c.Items) {
		return
	}
	it := &c.Items[idx]
	it.DiscountPercent = nil
	it.DiscountAmount = nil
	it.ManualPrice = &price
}

// Subtotal is the sum of item subtotals.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for idx := range c.Items {
		sum = pricing.Add(sum, c.Items[idx].Subtotal())
	}
	return sum
}

// ComputeTotals recomputes the full monetary state. A coupon, when present,
// supersedes the flat percentage discount; an ineligible coupon degrades to
// zero discount with a warning, never a failure.
func (c *Cart) ComputeTotals(coupon *model.Coupon, now time.Time) Totals {
	subtotal := c.Subtotal()

	t := Totals{
		Subtotal:     subtotal,
		ShippingCost: pricing.Round2(c.ShippingCost),
	}

	if c.CouponCode != "" {
		res := discount.EvaluateCoupon(coupon, subtotal, now)
		t.DiscountAmount = res.Amount
		t.CouponWarning = res.Reason
		if subtotal.IsPositive() && res.Amount.IsPositive() {
			t.DiscountPercent = pricing.Round2(res.Amount.Mul(decimal.NewFromInt(100)).Div(subtotal))
		}
	} else if c.DiscountPercent.IsPositive() {
		t.DiscountPercent = c.DiscountPercent
		t.DiscountAmount = discount.OrderPercent(subtotal, c.DiscountPercent)
	} else {
		t.DiscountAmount = decimal.Zero
	}

	t.Total = pricing.Add(pricing.Sub(subtotal, t.DiscountAmount), t.ShippingCost)
	if t.Total.IsNegative() {
		t.Total = decimal.Zero
	}
	return t
}

func equalVolume(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
