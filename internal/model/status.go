package model

import "fmt"

// PaymentStatus tracks the gateway's status vocabulary on our side. It is the
// field inventory and email side effects key off.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentApproved   PaymentStatus = "approved"
	PaymentProcessing PaymentStatus = "processing"
	PaymentRejected   PaymentStatus = "rejected"
	PaymentCancelled  PaymentStatus = "cancelled"
	PaymentRefunded   PaymentStatus = "refunded"
)

// OrderStatus is the order-facing lifecycle label.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// statusTable is the fixed mapping from the gateway's raw status vocabulary
// to our (payment_status, status) pair:
//
//	pending -> confirmed   (approved | authorized)
//	pending -> pending     (pending | in_process | in_mediation)
//	pending -> cancelled   (rejected | cancelled)
//	confirmed -> refunded  (refunded | charged_back)
var statusTable = map[string]struct {
	payment PaymentStatus
	order   OrderStatus
}{
	"approved":     {PaymentApproved, OrderConfirmed},
	"authorized":   {PaymentApproved, OrderConfirmed},
	"pending":      {PaymentPending, OrderPending},
	"in_process":   {PaymentProcessing, OrderPending},
	"in_mediation": {PaymentProcessing, OrderPending},
	"rejected":     {PaymentRejected, OrderCancelled},
	"cancelled":    {PaymentCancelled, OrderCancelled},
	"refunded":     {PaymentRefunded, OrderRefunded},
	"charged_back": {PaymentRefunded, OrderRefunded},
}

// MapGatewayStatus resolves a raw gateway status against the fixed table.
// Unknown statuses are rejected — never silently defaulted to pending.
func MapGatewayStatus(raw string) (PaymentStatus, OrderStatus, error) {
	m, ok := statusTable[raw]
	if !ok {
		return "", "", fmt.Errorf("status de pagamento desconhecido: %q", raw)
	}
	return m.payment, m.order, nil
}
