package service

import (
	"context"

	"github.com/google/uuid"

	"hpmarcas/internal/model"
	"hpmarcas/internal/repository"
)

// StockRequest is one (product, quantity) line to validate.
type StockRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// StockValidator checks requested quantities against authoritative inventory
// counts before a sale commits. It is a point-in-time check, not a
// reservation: no hold is placed, so two concurrent submissions against the
// same near-exhausted product can both pass (the decrement itself is an
// atomic clamp-at-zero at the data layer).
type StockValidator struct {
	products repository.ProductRepository
}

func NewStockValidator(products repository.ProductRepository) *StockValidator {
	return &StockValidator{products: products}
}

// Validate fetches the current stock of every referenced active product and
// reports the shortfall list. A product missing from the active set is a
// hard error, not a shortfall. A non-empty shortfall list means the caller
// must reject the entire sale — no partial fulfillment.
//
// The loaded products are returned so callers price against the same
// snapshot that passed validation instead of re-querying.
func (v *StockValidator) Validate(ctx context.Context, requests []StockRequest) (map[uuid.UUID]*model.Product, []StockShortfall, error) {
	ids := make([]uuid.UUID, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ProductID)
	}
	products, err := v.products.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for idx := range products {
		byID[products[idx].ID] = &products[idx]
	}
	for _, r := range requests {
		if _, ok := byID[r.ProductID]; !ok {
			return nil, nil, &ErrProductUnavailable{ProductID: r.ProductID.String()}
		}
	}
	return byID, CheckStock(requests, byID), nil
}

// CheckStock is the pure comparison: a shortfall entry iff requested >
// available. Aggregates duplicate lines for the same product first.
func CheckStock(requests []StockRequest, products map[uuid.UUID]*model.Product) []StockShortfall {
	wanted := make(map[uuid.UUID]int, len(requests))
	order := make([]uuid.UUID, 0, len(requests))
	for _, r := range requests {
		if _, seen := wanted[r.ProductID]; !seen {
			order = append(order, r.ProductID)
		}
		wanted[r.ProductID] += r.Quantity
	}

	var shortfalls []StockShortfall
	for _, id := range order {
		p, ok := products[id]
		if !ok {
			continue
		}
		if wanted[id] > p.Stock {
			shortfalls = append(shortfalls, StockShortfall{
				ProductID:   id.String(),
				ProductName: p.Name,
				Requested:   wanted[id],
				Available:   p.Stock,
			})
		}
	}
	return shortfalls
}
