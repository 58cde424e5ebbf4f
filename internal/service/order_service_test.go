package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpmarcas/internal/dto"
	"hpmarcas/internal/model"
	"hpmarcas/internal/repository"
)

type orderFixture struct {
	svc       OrderService
	sales     *stubSaleRepo
	customers *stubCustomerRepo
	products  *stubProductRepo
	coupons   *stubCouponRepo
	gateway   *stubGateway
	customer  *model.Customer
	address   *model.Address
	product   *model.Product
}

func newOrderFixture(t *testing.T, coupons ...*model.Coupon) *orderFixture {
	t.Helper()

	customer := &model.Customer{
		ID:    uuid.New(),
		Name:  "Maria Silva",
		Email: "maria@example.com",
		Type:  model.CustomerRetail,
	}
	address := &model.Address{ID: uuid.New(), CustomerID: customer.ID}
	product := &model.Product{
		ID:          uuid.New(),
		SKU:         "PERF-001",
		Name:        "Perfume Amadeirado 100ml",
		RetailPrice: decimal.NewFromInt(50),
		Stock:       10,
		Status:      "active",
	}

	customers := newStubCustomerRepo()
	customers.customers[customer.ID] = customer
	customers.addresses[address.ID] = address

	products := newStubProductRepo(product)
	sales := newStubSaleRepo()
	couponRepo := newStubCouponRepo(coupons...)
	gateway := newStubGateway()

	svc := NewOrderService(sales, customers, couponRepo,
		NewStockValidator(products), gateway, nil, "8123")

	return &orderFixture{
		svc: svc, sales: sales, customers: customers, products: products,
		coupons: couponRepo, gateway: gateway,
		customer: customer, address: address, product: product,
	}
}

func (f *orderFixture) request(qty int) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		CustomerID:        f.customer.ID.String(),
		ShippingAddressID: f.address.ID.String(),
		Items:             []dto.OrderItemRequest{{ProductID: f.product.ID.String(), Quantity: qty}},
	}
}

func pctCoupon(code string, pct int64) *model.Coupon {
	return &model.Coupon{
		ID:        uuid.New(),
		Code:      code,
		Type:      model.CouponPercentage,
		Value:     decimal.NewFromInt(pct),
		StartDate: time.Now().Add(-time.Hour),
		Active:    true,
	}
}

func fixedCoupon(code string, amount int64) *model.Coupon {
	return &model.Coupon{
		ID:        uuid.New(),
		Code:      code,
		Type:      model.CouponFixed,
		Value:     decimal.NewFromInt(amount),
		StartDate: time.Now().Add(-time.Hour),
		Active:    true,
	}
}

func TestCreateOrder_PercentCoupon(t *testing.T) {
	f := newOrderFixture(t, pctCoupon("DESC10", 10))

	req := f.request(2) // 2 × 50.00 = 100.00
	code := "DESC10"
	req.CouponCode = &code

	resp, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.SubtotalAmount.Equal(decimal.NewFromInt(100)), "subtotal = %s", resp.SubtotalAmount)
	assert.True(t, resp.CouponDiscount.Equal(decimal.NewFromInt(10)), "discount = %s", resp.CouponDiscount)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(90)), "total = %s", resp.TotalAmount)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "pending", resp.PaymentStatus)
	assert.Empty(t, resp.CouponWarning)

	// Stock is NOT decremented at creation — only on payment approval.
	assert.Equal(t, 10, f.products.stock(f.product.ID))

	// Coupon consumption registered.
	assert.Len(t, f.coupons.usages, 1)
	assert.Equal(t, 1, f.coupons.coupons["DESC10"].UsedCount)
}

func TestCreateOrder_FixedCouponClampedToSubtotal(t *testing.T) {
	f := newOrderFixture(t, fixedCoupon("VALE80", 80))

	req := f.request(1) // subtotal 50.00, coupon worth 80.00
	code := "VALE80"
	req.CouponCode = &code

	resp, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.CouponDiscount.Equal(decimal.NewFromInt(50)), "discount clamps to subtotal, got %s", resp.CouponDiscount)
	assert.True(t, resp.TotalAmount.IsZero(), "total = %s", resp.TotalAmount)
}

func TestCreateOrder_IneligibleCouponDegradesToWarning(t *testing.T) {
	c := pctCoupon("EXPIRADO", 10)
	past := time.Now().Add(-time.Minute)
	c.EndDate = &past
	f := newOrderFixture(t, c)

	req := f.request(2)
	code := "EXPIRADO"
	req.CouponCode = &code

	resp, err := f.svc.CreateOrder(context.Background(), req)
	require.NoError(t, err, "ineligible coupon must not fail the order")

	assert.True(t, resp.CouponDiscount.IsZero())
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.NotEmpty(t, resp.CouponWarning)
	assert.Empty(t, f.coupons.usages, "no redemption without an applied discount")
}

func TestCreateOrder_StockShortfallRejectsWholeSale(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), f.request(15)) // only 10 on hand
	require.Error(t, err)

	var stockErr *StockInsufficientError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortfalls, 1)
	sf := stockErr.Shortfalls[0]
	assert.Equal(t, f.product.ID.String(), sf.ProductID)
	assert.Equal(t, f.product.Name, sf.ProductName)
	assert.Equal(t, 15, sf.Requested)
	assert.Equal(t, 10, sf.Available)

	// Nothing persisted.
	assert.Empty(t, f.sales.sales)
}

func TestCreateOrder_AddressOwnershipEnforced(t *testing.T) {
	f := newOrderFixture(t)
	// Existing address that belongs to someone else.
	stranger := &model.Address{ID: uuid.New(), CustomerID: uuid.New()}
	f.customers.addresses[stranger.ID] = stranger

	req := f.request(1)
	req.ShippingAddressID = stranger.ID.String()
	_, err := f.svc.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrAddressOwnership)

	// Unknown address id is a plain not-found.
	req.ShippingAddressID = uuid.NewString()
	_, err = f.svc.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestCreateOrder_ItemPersistenceFailureCompensates(t *testing.T) {
	f := newOrderFixture(t)
	f.sales.failItems = true

	_, err := f.svc.CreateOrder(context.Background(), f.request(1))
	require.ErrorIs(t, err, ErrOrderCreateFailed)

	assert.Empty(t, f.sales.sales, "orphaned sale row must be removed")
	assert.Len(t, f.sales.deleted, 1)
}

func TestCreateOrder_GatewayFailureDoesNotRollBack(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.prefErr = errors.New("gateway down")

	resp, err := f.svc.CreateOrder(context.Background(), f.request(1))
	require.NoError(t, err, "the sale is durable, gateway failure is surfaced on the response")

	assert.NotEmpty(t, resp.PaymentSetupError)
	assert.Empty(t, resp.PaymentPreferenceID)
	assert.Len(t, f.sales.sales, 1, "sale stays persisted")
}

func TestCreateOrder_PreferenceCarriesExternalReferenceAndExclusions(t *testing.T) {
	f := newOrderFixture(t)

	resp, err := f.svc.CreateOrder(context.Background(), f.request(1))
	require.NoError(t, err)

	req := f.gateway.lastPrefReq
	require.NotNil(t, req)
	assert.Equal(t, "8123-"+resp.ID, req.ExternalReference)
	assert.ElementsMatch(t, []string{"credit_card", "debit_card", "ticket"}, req.ExcludedPaymentTypes)

	// Preference id stored for webhook resolution.
	saleID := uuid.MustParse(resp.ID)
	stored := f.sales.get(saleID)
	require.NotNil(t, stored.PaymentExternalID)
	assert.Equal(t, "pref-1", *stored.PaymentExternalID)
}

func TestCreateOrder_EmptyItemsRejected(t *testing.T) {
	f := newOrderFixture(t)
	req := f.request(1)
	req.Items = nil

	_, err := f.svc.CreateOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreateOrder_InactiveProductIsHardFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.product.Status = "inactive"
	f.products.products[f.product.ID] = f.product

	_, err := f.svc.CreateOrder(context.Background(), f.request(1))
	var unavailable *ErrProductUnavailable
	assert.True(t, errors.As(err, &unavailable))
}

func TestCouponRedeem_ConcurrentAttemptsRespectCap(t *testing.T) {
	coupon := pctCoupon("LIMITADO", 10)
	limit := 3
	coupon.UsageLimit = &limit
	repo := newStubCouponRepo(coupon)

	// Ten racing redemptions against a cap of three: the guarded
	// increment admits exactly three and rejects the rest.
	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Redeem(context.Background(), &model.CouponUsage{
				ID:       uuid.New(),
				CouponID: coupon.ID,
				SaleID:   uuid.New(),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, repository.ErrCouponExhausted)
		}
	}
	assert.Equal(t, limit, succeeded)
	assert.Len(t, repo.usages, limit)
	assert.Equal(t, limit, repo.coupons[coupon.Code].UsedCount)
}

func TestCreateOrder_DeactivationAfterValidationUsesSnapshot(t *testing.T) {
	f := newOrderFixture(t)
	f.products.deactivateAfterLoad = true

	// The product goes inactive right after the stock check. Pricing runs
	// against the validated snapshot, so the order still commits — it must
	// never dereference a missing product mid-request.
	resp, err := f.svc.CreateOrder(context.Background(), f.request(2))
	require.NoError(t, err)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(100)), "total = %s", resp.TotalAmount)
	assert.Len(t, f.sales.sales, 1)
}
