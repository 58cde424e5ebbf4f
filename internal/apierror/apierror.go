// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Error string `json:"error"`
}

func New(msg string) *APIError {
	return &APIError{Error: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Error: "Erro de validação", Fields: fields}
}

// StockShortfall is one line of an itemized insufficient-stock rejection.
type StockShortfall struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// StockError is returned when one or more requested quantities exceed the
// on-hand count. It carries the structured shortfall list so callers can
// render a per-item message instead of a generic failure.
type StockError struct {
	Error            string `json:"error"`
	ValidationErrors struct {
		Stock []StockShortfall `json:"stock"`
	} `json:"validation_errors"`
}

func NewStock(shortfalls []StockShortfall) *StockError {
	e := &StockError{Error: "Estoque insuficiente"}
	e.ValidationErrors.Stock = shortfalls
	return e
}
