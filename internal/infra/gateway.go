package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PaymentGateway is the boundary wrapper around the external payment
// processor. It creates a payment preference at checkout and re-fetches the
// authoritative payment object during webhook reconciliation. The processor
// itself is never reimplemented here.
type PaymentGateway interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
}

// PreferenceItem mirrors the gateway's item schema. Amounts cross the wire
// as floats — the gateway API speaks JSON numbers.
type PreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

// PreferenceRequest creates a payment intent scoped to an order total.
// ExcludedPaymentTypes restricts the checkout to the instruments the
// business accepts online (e.g. credit_card and ticket rails excluded,
// leaving only instant transfer).
type PreferenceRequest struct {
	ExternalReference    string           `json:"external_reference"`
	Items                []PreferenceItem `json:"items"`
	ExcludedPaymentTypes []string         `json:"excluded_payment_types"`
	PayerEmail           string           `json:"payer_email,omitempty"`
	NotificationURL      string           `json:"notification_url,omitempty"`
}

type Preference struct {
	ID                string `json:"id"`
	InitPoint         string `json:"init_point"`
	ExternalReference string `json:"external_reference"`
}

// Payment is the authoritative payment object fetched by id. Webhook bodies
// embed amounts and status too, but those are never trusted as final truth.
type Payment struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	PaymentMethodID   string  `json:"payment_method_id"`
	PaymentTypeID     string  `json:"payment_type_id"`
}

// HTTPGateway is the production PaymentGateway. Calls go through the circuit
// breaker so a degraded gateway fast-fails instead of piling up requests.
type HTTPGateway struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	cb          *CircuitBreaker
}

func NewHTTPGateway(baseURL, accessToken string, cb *CircuitBreaker) *HTTPGateway {
	return &HTTPGateway{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		cb:          cb,
	}
}

func (g *HTTPGateway) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal preference: %w", err)
	}

	var pref Preference
	err = g.cb.Execute(func() error {
		return g.doJSON(ctx, http.MethodPost, "/checkout/preferences", bytes.NewReader(body), &pref)
	})
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (g *HTTPGateway) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var payment Payment
	err := g.cb.Execute(func() error {
		return g.doJSON(ctx, http.MethodGet, "/v1/payments/"+id, nil, &payment)
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (g *HTTPGateway) doJSON(ctx context.Context, method, path string, body *bytes.Reader, out interface{}) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, g.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("gateway: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway: %s %s returned %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gateway: decode response: %w", err)
	}
	return nil
}
