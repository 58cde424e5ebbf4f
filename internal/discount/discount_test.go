package discount

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"hpmarcas/internal/model"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func baseCoupon(typ string, value string) *model.Coupon {
	return &model.Coupon{
		ID:        uuid.New(),
		Code:      "TEST",
		Type:      typ,
		Value:     d(value),
		StartDate: time.Now().Add(-24 * time.Hour),
		Active:    true,
	}
}

func TestEvaluateCoupon_Percentage(t *testing.T) {
	res := EvaluateCoupon(baseCoupon(model.CouponPercentage, "10"), d("200.00"), time.Now())
	assert.Empty(t, res.Reason)
	assert.True(t, res.Amount.Equal(d("20.00")))
}

func TestEvaluateCoupon_PercentageCappedByMaxDiscount(t *testing.T) {
	c := baseCoupon(model.CouponPercentage, "50")
	cap := d("30.00")
	c.MaxDiscount = &cap

	res := EvaluateCoupon(c, d("200.00"), time.Now())
	assert.True(t, res.Amount.Equal(d("30.00")), "50%% of 200 capped at 30, got %s", res.Amount)
}

func TestEvaluateCoupon_FixedClampedToSubtotal(t *testing.T) {
	res := EvaluateCoupon(baseCoupon(model.CouponFixed, "80.00"), d("50.00"), time.Now())
	assert.True(t, res.Amount.Equal(d("50.00")))
}

func TestEvaluateCoupon_IneligibilityReasons(t *testing.T) {
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	limit := 3
	minOrder := d("100.00")

	cases := []struct {
		name   string
		mutate func(*model.Coupon)
	}{
		{"inactive", func(c *model.Coupon) { c.Active = false }},
		{"not yet started", func(c *model.Coupon) { c.StartDate = now.Add(time.Hour) }},
		{"expired", func(c *model.Coupon) { c.EndDate = &yesterday }},
		{"exhausted", func(c *model.Coupon) { c.UsageLimit = &limit; c.UsedCount = 3 }},
		{"below minimum", func(c *model.Coupon) { c.MinOrderValue = &minOrder }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := baseCoupon(model.CouponPercentage, "10")
			tc.mutate(c)
			res := EvaluateCoupon(c, d("50.00"), now)
			assert.True(t, res.Amount.IsZero())
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestEvaluateCoupon_NilCoupon(t *testing.T) {
	res := EvaluateCoupon(nil, d("50.00"), time.Now())
	assert.True(t, res.Amount.IsZero())
	assert.NotEmpty(t, res.Reason)
}

// The discount bound must hold for arbitrary inputs: 0 <= amount <= subtotal.
func TestEvaluateCoupon_AmountAlwaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := time.Now()

	for i := 0; i < 500; i++ {
		subtotal := decimal.NewFromFloat(rng.Float64() * 1000).Round(2)

		var c *model.Coupon
		if rng.Intn(2) == 0 {
			c = baseCoupon(model.CouponPercentage, decimal.NewFromFloat(rng.Float64()*100).Round(2).String())
			if rng.Intn(2) == 0 {
				cap := decimal.NewFromFloat(rng.Float64() * 100).Round(2)
				c.MaxDiscount = &cap
			}
		} else {
			c = baseCoupon(model.CouponFixed, decimal.NewFromFloat(rng.Float64()*500).Round(2).String())
		}

		res := EvaluateCoupon(c, subtotal, now)
		assert.False(t, res.Amount.IsNegative(), "negative discount for subtotal %s", subtotal)
		assert.False(t, res.Amount.GreaterThan(subtotal), "discount %s exceeds subtotal %s", res.Amount, subtotal)
	}
}

func TestOrderPercent(t *testing.T) {
	assert.True(t, OrderPercent(d("80.00"), d("25")).Equal(d("20.00")))
	assert.True(t, OrderPercent(d("80.00"), decimal.Zero).IsZero())
	assert.True(t, OrderPercent(decimal.Zero, d("25")).IsZero())
}
