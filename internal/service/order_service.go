package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hpmarcas/internal/cart"
	"hpmarcas/internal/dto"
	"hpmarcas/internal/infra"
	"hpmarcas/internal/model"
	"hpmarcas/internal/pricing"
	"hpmarcas/internal/repository"
	"hpmarcas/internal/worker"
)

// Payment instruments accepted online: instant transfer only — card and
// ticket rails are explicitly excluded from the gateway preference.
var onlineExcludedPaymentTypes = []string{"credit_card", "debit_card", "ticket"}

var ErrOrderCreateFailed = errors.New("falha ao criar o pedido")

type OrderService interface {
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error)
}

type orderService struct {
	sales       repository.SaleRepository
	customers   repository.CustomerRepository
	coupons     repository.CouponRepository
	stock       *StockValidator
	gateway     infra.PaymentGateway
	dispatcher  *worker.Dispatcher
	collectorID string
}

func NewOrderService(
	sales repository.SaleRepository,
	customers repository.CustomerRepository,
	coupons repository.CouponRepository,
	stock *StockValidator,
	gateway infra.PaymentGateway,
	dispatcher *worker.Dispatcher,
	collectorID string,
) OrderService {
	return &orderService{
		sales:       sales,
		customers:   customers,
		coupons:     coupons,
		stock:       stock,
		gateway:     gateway,
		dispatcher:  dispatcher,
		collectorID: collectorID,
	}
}

// CreateOrder is the online checkout path. Each step's failure
// short-circuits; after the sale row and items are committed, a gateway
// failure no longer rolls anything back — it is surfaced on the response as
// "payment setup failed".
func (s *orderService) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	// 1. Presence validation
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer_id inválido: %w", err)
	}
	addressID, err := uuid.Parse(req.ShippingAddressID)
	if err != nil {
		return nil, fmt.Errorf("shipping_address_id inválido: %w", err)
	}

	// 2. Customer and shipping address must exist; the address must belong
	// to the customer.
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	address, err := s.customers.FindAddressByID(ctx, addressID)
	if err != nil {
		return nil, ErrAddressNotFound
	}
	if address.CustomerID != customer.ID {
		return nil, ErrAddressOwnership
	}

	// 3. Parse the requested lines into validator requests.
	requests := make([]StockRequest, 0, len(req.Items))
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product_id inválido: %w", err)
		}
		requests = append(requests, StockRequest{ProductID: pid, Quantity: item.Quantity})
	}

	// 4. Stock validation — reject the whole sale on any shortfall. The
	// returned snapshot is also the pricing source: a product deactivated
	// after this read cannot surface as a nil mid-request.
	byID, shortfalls, err := s.stock.Validate(ctx, requests)
	if err != nil {
		return nil, err
	}
	if len(shortfalls) > 0 {
		return nil, &StockInsufficientError{Shortfalls: shortfalls}
	}

	// 5. Resolve tier pricing (+ additive volume adjustment) through the
	// shared cart aggregate so both entry points agree on the rules.
	ck := cart.New("", customer.ID, customer.Type)
	ck.ShippingCost = req.ShippingCost
	for i, item := range req.Items {
		p := byID[requests[i].ProductID]
		unit := p.TierPrice(customer.Type)
		var volumeID *uuid.UUID
		if item.VolumeID != nil {
			vid, err := uuid.Parse(*item.VolumeID)
			if err != nil {
				return nil, fmt.Errorf("volume inválido: %w", err)
			}
			vol := findVolume(p, vid)
			if vol == nil {
				return nil, fmt.Errorf("volume %s não pertence ao produto %s", vid, p.ID)
			}
			unit = pricing.Add(unit, vol.PriceAdjustment)
			volumeID = &vid
		}
		ck.AddItem(cart.Item{
			ProductID:   p.ID,
			VolumeID:    volumeID,
			ProductName: p.Name,
			ProductSKU:  p.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   unit,
		})
	}

	// 6. Order-level discount: coupon when present. An ineligible coupon
	// degrades to zero discount with a warning, never a failure.
	var coupon *model.Coupon
	if req.CouponCode != nil && *req.CouponCode != "" {
		ck.CouponCode = *req.CouponCode
		if c, err := s.coupons.FindByCode(ctx, *req.CouponCode); err == nil {
			coupon = c
		}
	}
	totals := ck.ComputeTotals(coupon, time.Now())

	// 7. Persist the sale row, then the denormalized item snapshots. If item
	// persistence fails, compensate by deleting the just-created sale row —
	// no multi-row transaction is assumed at this boundary.
	sale := &model.Sale{
		CustomerID:      customer.ID,
		AddressID:       &address.ID,
		Subtotal:        totals.Subtotal,
		DiscountPercent: totals.DiscountPercent,
		DiscountAmount:  totals.DiscountAmount,
		ShippingCost:    totals.ShippingCost,
		ShippingMethod:  req.ShippingMethod,
		Total:           totals.Total,
		CouponCode:      req.CouponCode,
		PaymentStatus:   model.PaymentPending,
		Status:          model.OrderPending,
		OrderSource:     model.SourceEcommerce,
	}
	if err := s.sales.Create(ctx, nil, sale); err != nil {
		return nil, ErrOrderCreateFailed
	}

	items := buildSaleItems(sale.ID, ck.Items)
	if err := s.sales.CreateItems(ctx, nil, items); err != nil {
		if delErr := s.sales.Delete(ctx, sale.ID); delErr != nil {
			log.Error().Err(delErr).Str("sale_id", sale.ID.String()).
				Msg("compensating delete failed after item persistence error")
		}
		return nil, ErrOrderCreateFailed
	}
	sale.Items = items

	// 8. Register coupon consumption. The increment is atomic at the data
	// layer; losing the race here is logged, not failed — the order is
	// already committed.
	if coupon != nil && totals.DiscountAmount.IsPositive() {
		usage := &model.CouponUsage{
			CouponID:       coupon.ID,
			SaleID:         sale.ID,
			CustomerID:     customer.ID,
			DiscountAmount: totals.DiscountAmount,
		}
		if err := s.coupons.Redeem(ctx, usage); err != nil {
			log.Warn().Err(err).Str("coupon", coupon.Code).Str("sale_id", sale.ID.String()).
				Msg("coupon redemption failed after order commit")
		}
	}

	resp := saleToOrderResponse(sale)
	resp.CouponWarning = totals.CouponWarning

	// 9. Payment preference scoped to the order total. The sale is already
	// durable: failure here is "order created, payment setup failed", never
	// a rollback.
	totalFloat, _ := totals.Total.Float64()
	pref, err := s.gateway.CreatePreference(ctx, infra.PreferenceRequest{
		ExternalReference: fmt.Sprintf("%s-%s", s.collectorID, sale.ID),
		Items: []infra.PreferenceItem{{
			Title:      fmt.Sprintf("Pedido %s", sale.ID),
			Quantity:   1,
			UnitPrice:  totalFloat,
			CurrencyID: "BRL",
		}},
		ExcludedPaymentTypes: onlineExcludedPaymentTypes,
		PayerEmail:           customer.Email,
	})
	if err != nil {
		log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("payment preference creation failed")
		resp.PaymentSetupError = "pedido criado, falha ao configurar o pagamento"
		return resp, nil
	}
	resp.PaymentPreferenceID = pref.ID
	if err := s.sales.SetPaymentExternalID(ctx, sale.ID, pref.ID); err != nil {
		log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("failed to persist payment reference")
	} else {
		resp.PaymentExternalID = &pref.ID
	}

	// 10. Best-effort confirmation notification — never fails the order.
	s.notify(ctx, customer.Email, sale.ID,
		"Pedido recebido",
		fmt.Sprintf("Olá %s, recebemos seu pedido no valor de R$ %s. Ele será confirmado assim que o pagamento for aprovado.",
			customer.Name, totals.Total.StringFixed(2)))

	return resp, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, ErrSaleNotFound
	}
	return saleToOrderResponse(sale), nil
}

func (s *orderService) notify(ctx context.Context, to string, saleID uuid.UUID, subject, body string) {
	if s.dispatcher == nil {
		return
	}
	payload := worker.EmailJobPayload{
		ToEmail: to,
		Subject: subject,
		Body:    body,
		SaleID:  saleID.String(),
	}
	if err := s.dispatcher.EnqueueEmail(ctx, payload); err != nil {
		log.Error().Err(err).Str("sale_id", saleID.String()).Msg("failed to enqueue notification")
	}
}

func findVolume(p *model.Product, volumeID uuid.UUID) *model.Volume {
	for idx := range p.Volumes {
		if p.Volumes[idx].ID == volumeID {
			return &p.Volumes[idx]
		}
	}
	return nil
}

func buildSaleItems(saleID uuid.UUID, items []cart.Item) []model.SaleItem {
	out := make([]model.SaleItem, 0, len(items))
	for idx := range items {
		it := &items[idx]
		out = append(out, model.SaleItem{
			SaleID:      saleID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			VolumeID:    it.VolumeID,
			Quantity:    it.Quantity,
			UnitPrice:   it.EffectiveUnitPrice(),
			TotalPrice:  it.Subtotal(),
		})
	}
	return out
}

func saleToOrderResponse(sale *model.Sale) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(sale.Items))
	for _, it := range sale.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return &dto.OrderResponse{
		ID:                sale.ID.String(),
		Status:            string(sale.Status),
		PaymentStatus:     string(sale.PaymentStatus),
		SubtotalAmount:    sale.Subtotal,
		CouponDiscount:    sale.DiscountAmount,
		ShippingCost:      sale.ShippingCost,
		TotalAmount:       sale.Total,
		CouponCode:        sale.CouponCode,
		PaymentExternalID: sale.PaymentExternalID,
		Items:             items,
		CreatedAt:         sale.CreatedAt.Format(time.RFC3339),
	}
}

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
