package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hpmarcas/internal/cart"
	"hpmarcas/internal/dto"
	"hpmarcas/internal/model"
	"hpmarcas/internal/pricing"
	"hpmarcas/internal/repository"
	"hpmarcas/internal/worker"
)

var (
	ErrCashAmountRequired = errors.New("valor recebido é obrigatório para pagamento em dinheiro")
	ErrInsufficientCash   = errors.New("valor recebido insuficiente")
	// ErrConflictingItemPricing rejects a line carrying both a discount and a
	// manual price override — at the API boundary they are mutually
	// exclusive, no last-writer-wins guessing.
	ErrConflictingItemPricing = errors.New("desconto e preço manual são mutuamente exclusivos no mesmo item")
)

type PDVService interface {
	FinalizeSale(ctx context.Context, req dto.FinalizePDVSaleRequest) (*dto.PDVSaleResponse, error)
	SaveDraft(ctx context.Context, req dto.SaveDraftRequest) error
	LoadDraft(ctx context.Context, sessionID string) (*dto.DraftResponse, error)
	ClearDraft(ctx context.Context, sessionID string) error
}

type pdvService struct {
	sales      repository.SaleRepository
	customers  repository.CustomerRepository
	products   repository.ProductRepository
	coupons    repository.CouponRepository
	movements  repository.StockMovementRepository
	stock      *StockValidator
	drafts     cart.DraftStore
	dispatcher *worker.Dispatcher
}

func NewPDVService(
	sales repository.SaleRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	coupons repository.CouponRepository,
	movements repository.StockMovementRepository,
	stock *StockValidator,
	drafts cart.DraftStore,
	dispatcher *worker.Dispatcher,
) PDVService {
	return &pdvService{
		sales:      sales,
		customers:  customers,
		products:   products,
		coupons:    coupons,
		movements:  movements,
		stock:      stock,
		drafts:     drafts,
		dispatcher: dispatcher,
	}
}

// FinalizeSale is the in-person counterpart to online checkout: payment is
// collected at the counter, so the sale is born confirmed/approved and the
// inventory decrement happens here, inside a single transaction with the
// sale rows — there is no asynchronous reconciliation to wait for.
func (s *pdvService) FinalizeSale(ctx context.Context, req dto.FinalizePDVSaleRequest) (*dto.PDVSaleResponse, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer_id inválido: %w", err)
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, ErrCustomerNotFound
	}

	requests := make([]StockRequest, 0, len(req.Items))
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product_id inválido: %w", err)
		}
		if item.ManualPrice != nil && (item.DiscountPercent != nil || item.DiscountAmount != nil) {
			return nil, ErrConflictingItemPricing
		}
		requests = append(requests, StockRequest{ProductID: pid, Quantity: item.Quantity})
	}

	// One snapshot serves validation and pricing: re-querying would let a
	// concurrent deactivation slip a nil product into the pricing loop.
	byID, shortfalls, err := s.stock.Validate(ctx, requests)
	if err != nil {
		return nil, err
	}
	if len(shortfalls) > 0 {
		return nil, &StockInsufficientError{Shortfalls: shortfalls}
	}

	ck := cart.New(req.SessionID, customer.ID, customer.Type)
	ck.DiscountPercent = req.DiscountPercent
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
			ProductID:       p.ID,
			VolumeID:        volumeID,
			ProductName:     p.Name,
			ProductSKU:      p.SKU,
			Quantity:        item.Quantity,
			UnitPrice:       unit,
			DiscountPercent: item.DiscountPercent,
			DiscountAmount:  item.DiscountAmount,
			ManualPrice:     item.ManualPrice,
		})
	}

	var coupon *model.Coupon
	if req.CouponCode != nil && *req.CouponCode != "" {
		ck.CouponCode = *req.CouponCode
		if c, err := s.coupons.FindByCode(ctx, *req.CouponCode); err == nil {
			coupon = c
		}
	}
	totals := ck.ComputeTotals(coupon, time.Now())

	// Cash is settled before anything persists: change is computed
	// server-side and an underpayment blocks the sale.
	change := decimal.Zero
	if req.PaymentMethod == "cash" {
		if req.AmountPaid == nil {
			return nil, ErrCashAmountRequired
		}
		change = pricing.Sub(*req.AmountPaid, totals.Total)
		if change.IsNegative() {
			return nil, ErrInsufficientCash
		}
	}

	sale := &model.Sale{
		CustomerID:      customer.ID,
		Subtotal:        totals.Subtotal,
		DiscountPercent: totals.DiscountPercent,
		DiscountAmount:  totals.DiscountAmount,
		Total:           totals.Total,
		CouponCode:      req.CouponCode,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   model.PaymentApproved,
		Status:          model.OrderConfirmed,
		OrderSource:     model.SourcePDV,
	}

	// Sale, items, decrements and movement rows commit or roll back
	// together: the counter is synchronous, so unlike the online path there
	// is no compensating-delete dance here.
	err = runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		if err := s.sales.Create(ctx, tx, sale); err != nil {
			return err
		}
		items := buildSaleItems(sale.ID, ck.Items)
		if err := s.sales.CreateItems(ctx, tx, items); err != nil {
			return err
		}
		sale.Items = items

		for _, item := range items {
			before := byID[item.ProductID]
			if err := s.products.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			saleRef := sale.ID
			mov := &model.StockMovement{
				ProductID:     item.ProductID,
				Type:          "sale",
				Quantity:      -item.Quantity,
				PreviousStock: before.Stock,
				NewStock:      maxInt(before.Stock-item.Quantity, 0),
				Reason:        fmt.Sprintf("Venda PDV %s", sale.ID),
				ReferenceID:   &saleRef,
			}
			if err := s.movements.Create(ctx, tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("pdv: sale finalization failed")
		return nil, ErrOrderCreateFailed
	}

	if coupon != nil && totals.DiscountAmount.IsPositive() {
		usage := &model.CouponUsage{
			CouponID:       coupon.ID,
			SaleID:         sale.ID,
			CustomerID:     customer.ID,
			DiscountAmount: totals.DiscountAmount,
		}
		if err := s.coupons.Redeem(ctx, usage); err != nil {
			log.Warn().Err(err).Str("coupon", coupon.Code).Str("sale_id", sale.ID.String()).
				Msg("pdv: coupon redemption failed after sale commit")
		}
	}

	// Completed session: the draft no longer represents recoverable work.
	if req.SessionID != "" && s.drafts != nil {
		if err := s.drafts.Clear(ctx, req.SessionID); err != nil {
			log.Warn().Err(err).Str("session_id", req.SessionID).Msg("pdv: draft cleanup failed")
		}
	}

	// Receipt by email when the walk-in customer has one on file.
	if customer.Email != "" && s.dispatcher != nil {
		payload := worker.EmailJobPayload{
			ToEmail:       customer.Email,
			Subject:       "Comprovante de compra",
			Body:          fmt.Sprintf("Olá %s, obrigado pela compra! Seu comprovante está em anexo.", customer.Name),
			SaleID:        sale.ID.String(),
			AttachReceipt: true,
		}
		if err := s.dispatcher.EnqueueEmail(ctx, payload); err != nil {
			log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("pdv: failed to enqueue receipt email")
		}
	}

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
	return &dto.PDVSaleResponse{
		ID:             sale.ID.String(),
		Status:         string(sale.Status),
		PaymentStatus:  string(sale.PaymentStatus),
		PaymentMethod:  sale.PaymentMethod,
		Subtotal:       sale.Subtotal,
		DiscountAmount: sale.DiscountAmount,
		Total:          sale.Total,
		Change:         change,
		Items:          items,
		CreatedAt:      sale.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *pdvService) SaveDraft(ctx context.Context, req dto.SaveDraftRequest) error {
	if req.Cart.SessionID == "" {
		return fmt.Errorf("session_id obrigatório")
	}
	c := req.Cart
	return s.drafts.Save(ctx, c.SessionID, &c)
}

func (s *pdvService) LoadDraft(ctx context.Context, sessionID string) (*dto.DraftResponse, error) {
	c, restored, err := s.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.DraftResponse{SessionID: sessionID, Cart: c, Restored: restored}, nil
}

func (s *pdvService) ClearDraft(ctx context.Context, sessionID string) error {
	return s.drafts.Clear(ctx, sessionID)
}
