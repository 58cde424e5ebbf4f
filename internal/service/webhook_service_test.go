package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpmarcas/internal/dto"
	"hpmarcas/internal/infra"
	"hpmarcas/internal/model"
)

type webhookFixture struct {
	svc       WebhookService
	sales     *stubSaleRepo
	products  *stubProductRepo
	movements *stubMovementRepo
	gateway   *stubGateway
	sale      *model.Sale
	product   *model.Product
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	product := &model.Product{
		ID:          uuid.New(),
		SKU:         "PERF-002",
		Name:        "Perfume Cítrico 50ml",
		RetailPrice: decimal.NewFromInt(30),
		Stock:       8,
		Status:      "active",
	}
	extID := "pay-1"
	sale := &model.Sale{
		ID:                uuid.New(),
		CustomerID:        uuid.New(),
		Subtotal:          decimal.NewFromInt(60),
		Total:             decimal.NewFromInt(60),
		PaymentStatus:     model.PaymentPending,
		Status:            model.OrderPending,
		OrderSource:       model.SourceEcommerce,
		PaymentExternalID: &extID,
		Items: []model.SaleItem{{
			ID:        uuid.New(),
			ProductID: product.ID,
			Quantity:  2,
			UnitPrice: decimal.NewFromInt(30),
		}},
	}

	sales := newStubSaleRepo()
	sales.sales[sale.ID] = sale
	products := newStubProductRepo(product)
	movements := newStubMovementRepo()
	gateway := newStubGateway()

	svc := NewWebhookService(sales, products, movements, gateway, nil)
	return &webhookFixture{
		svc: svc, sales: sales, products: products, movements: movements,
		gateway: gateway, sale: sale, product: product,
	}
}

func paymentEvent(id string) dto.WebhookRequest {
	var req dto.WebhookRequest
	req.Type = "payment"
	req.Data.ID = id
	return req
}

func (f *webhookFixture) setPayment(status string) {
	f.gateway.payments["pay-1"] = &infra.Payment{
		ID:                "pay-1",
		Status:            status,
		ExternalReference: "8123-" + f.sale.ID.String(),
		PaymentMethodID:   "pix",
	}
}

func TestWebhook_ApprovalConfirmsAndDecrementsOnce(t *testing.T) {
	f := newWebhookFixture(t)
	f.setPayment("approved")

	resp, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "approved", resp.PaymentStatus)

	stored := f.sales.get(f.sale.ID)
	assert.Equal(t, model.OrderConfirmed, stored.Status)
	assert.Equal(t, model.PaymentApproved, stored.PaymentStatus)
	require.NotNil(t, stored.PaymentMethodDetail)

	assert.Equal(t, 6, f.products.stock(f.product.ID), "8 - 2")
	assert.Equal(t, 1, f.products.decrements[f.product.ID])

	movs, _ := f.movements.ListByProduct(context.Background(), f.product.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, "webhook_sale", movs[0].Type)
	assert.Equal(t, -2, movs[0].Quantity)
}

func TestWebhook_DuplicateApprovalDecrementsExactlyOnce(t *testing.T) {
	f := newWebhookFixture(t)
	f.setPayment("approved")

	for i := 0; i < 3; i++ {
		_, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.products.decrements[f.product.ID], "replays must not decrement again")
	assert.Equal(t, 6, f.products.stock(f.product.ID))
}

func TestWebhook_StalePendingAfterConfirmedIsIgnored(t *testing.T) {
	f := newWebhookFixture(t)
	f.setPayment("approved")
	_, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
	require.NoError(t, err)

	// A delayed "pending" delivery arrives after the approval.
	f.setPayment("pending")
	resp, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)

	stored := f.sales.get(f.sale.ID)
	assert.Equal(t, model.OrderConfirmed, stored.Status, "lifecycle never moves backwards")
	assert.Equal(t, 1, f.products.decrements[f.product.ID])
}

func TestWebhook_RefundAfterApproval(t *testing.T) {
	f := newWebhookFixture(t)
	f.setPayment("approved")
	_, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
	require.NoError(t, err)

	f.setPayment("charged_back")
	resp, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
	require.NoError(t, err)
	assert.Equal(t, "refunded", resp.PaymentStatus)

	stored := f.sales.get(f.sale.ID)
	assert.Equal(t, model.OrderRefunded, stored.Status)
	// Refunds do not restock automatically.
	assert.Equal(t, 6, f.products.stock(f.product.ID))
	assert.Equal(t, 1, f.products.decrements[f.product.ID])
}

func TestWebhook_UnknownStatusFailsClosed(t *testing.T) {
	f := newWebhookFixture(t)
	f.setPayment("weird_new_status")

	_, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
	require.ErrorIs(t, err, ErrUnknownGatewayStatus)

	stored := f.sales.get(f.sale.ID)
	assert.Equal(t, model.OrderPending, stored.Status, "nothing applied on unknown status")
	assert.Equal(t, 0, f.products.decrements[f.product.ID])
}

func TestWebhook_NonPaymentEventIgnored(t *testing.T) {
	f := newWebhookFixture(t)

	var req dto.WebhookRequest
	req.Type = "merchant_order"
	req.Data.ID = "whatever"

	resp, err := f.svc.ProcessEvent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ignored", resp.Status)
}

func TestWebhook_UnfetchablePaymentIsRetryable(t *testing.T) {
	f := newWebhookFixture(t)
	f.gateway.getErr = errors.New("timeout")

	_, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
	assert.ErrorIs(t, err, ErrPaymentFetch)
}

func TestWebhook_SandboxIDShortCircuitsToSuccess(t *testing.T) {
	f := newWebhookFixture(t)
	f.gateway.getErr = errors.New("not a real payment")

	resp, err := f.svc.ProcessEvent(context.Background(), paymentEvent("123456"))
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Status)
}

func TestWebhook_ResolvesSaleByExternalReferenceFallback(t *testing.T) {
	f := newWebhookFixture(t)
	// The stored sale knows only the preference id; the payment id differs.
	prefID := "pref-xyz"
	f.sales.get(f.sale.ID).PaymentExternalID = &prefID

	f.gateway.payments["pay-9"] = &infra.Payment{
		ID:                "pay-9",
		Status:            "approved",
		ExternalReference: "8123-" + f.sale.ID.String(),
		PaymentMethodID:   "pix",
	}

	resp, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-9"))
	require.NoError(t, err)
	assert.Equal(t, f.sale.ID.String(), resp.OrderID)

	stored := f.sales.get(f.sale.ID)
	assert.Equal(t, model.OrderConfirmed, stored.Status)
	// The reconciler rebinds the sale to the actual payment id.
	require.NotNil(t, stored.PaymentExternalID)
	assert.Equal(t, "pay-9", *stored.PaymentExternalID)
}

func TestWebhook_UnresolvedSaleIsNotFound(t *testing.T) {
	f := newWebhookFixture(t)
	f.gateway.payments["pay-1"] = &infra.Payment{
		ID:                "pay-1",
		Status:            "approved",
		ExternalReference: "8123-" + uuid.NewString(),
	}
	// Break the direct match too.
	other := "something-else"
	f.sales.get(f.sale.ID).PaymentExternalID = &other

	_, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestWebhook_DBOutageDuringResolutionIsRetryable(t *testing.T) {
	f := newWebhookFixture(t)
	f.setPayment("approved")
	f.sales.findErr = fmt.Errorf("dial tcp 10.0.0.5:5432: connect: connection refused")

	// A database outage must not read as "sale does not exist": the handler
	// turns ErrSaleNotFound into a terminal 404 and the event would be lost.
	_, err := f.svc.ProcessEvent(context.Background(), paymentEvent("pay-1"))
	assert.ErrorIs(t, err, ErrSaleLookup)
	assert.NotErrorIs(t, err, ErrSaleNotFound)
}
