package dto

// WebhookRequest is the inbound gateway notification body. Only the payment
// id is trusted — amounts and status are re-fetched from the gateway.
type WebhookRequest struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// WebhookResponse is returned for every processed event. Gateways expect a
// 2xx or they retry indefinitely, so even ignored events answer success.
type WebhookResponse struct {
	Status        string `json:"status"` // "success" | "ignored"
	OrderID       string `json:"order_id,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}
