package service

import (
	"errors"
	"fmt"
)

// Validation failures are rejected before any persistence.
var (
	ErrEmptyItems       = errors.New("pedido sem itens")
	ErrCustomerNotFound = errors.New("cliente não encontrado")
	ErrAddressNotFound  = errors.New("endereço não encontrado")
	ErrAddressOwnership = errors.New("endereço não pertence ao cliente")
	ErrSaleNotFound     = errors.New("pedido não encontrado")
)

// ErrSaleLookup marks a persistence failure while resolving a sale — as
// opposed to the sale genuinely not existing. Retryable.
var ErrSaleLookup = errors.New("falha ao consultar o pedido")

// ErrProductUnavailable marks a requested product missing from the active
// set — a hard failure, distinct from a stock shortfall.
type ErrProductUnavailable struct{ ProductID string }

func (e *ErrProductUnavailable) Error() string {
	return fmt.Sprintf("produto %s indisponível ou inativo", e.ProductID)
}

// StockShortfall is one line where requested > available.
type StockShortfall struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// StockInsufficientError carries the itemized shortfall list so callers can
// render per-item messages. Distinct from generic validation errors.
type StockInsufficientError struct {
	Shortfalls []StockShortfall
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("estoque insuficiente para %d item(ns)", len(e.Shortfalls))
}
