package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hpmarcas/internal/discount"
	"hpmarcas/internal/dto"
	"hpmarcas/internal/model"
	"hpmarcas/internal/repository"
)

// CatalogService serves the storefront reads: product listing and the
// pre-checkout coupon preview. Validation here is advisory — the
// authoritative evaluation happens again at order creation time.
type CatalogService interface {
	ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	ValidateCoupon(ctx context.Context, q dto.ValidateCouponQuery) (*dto.ValidateCouponResponse, error)
}

type catalogService struct {
	products repository.ProductRepository
	coupons  repository.CouponRepository
}

func NewCatalogService(products repository.ProductRepository, coupons repository.CouponRepository) CatalogService {
	return &catalogService{products: products, coupons: coupons}
}

func (s *catalogService) ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for idx := range products {
		data = append(data, productToResponse(&products[idx]))
	}
	return &dto.ProductListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, &ErrProductUnavailable{ProductID: id.String()}
	}
	resp := productToResponse(p)
	return &resp, nil
}

// ValidateCoupon previews a coupon against a subtotal. An ineligible coupon
// answers valid=false with the reason, never an error: the storefront shows
// the message inline.
func (s *catalogService) ValidateCoupon(ctx context.Context, q dto.ValidateCouponQuery) (*dto.ValidateCouponResponse, error) {
	coupon, err := s.coupons.FindByCode(ctx, q.Code)
	if err != nil {
		coupon = nil
	}
	res := discount.EvaluateCoupon(coupon, q.Subtotal, time.Now())
	return &dto.ValidateCouponResponse{
		Code:           q.Code,
		Valid:          res.Reason == "",
		DiscountAmount: res.Amount,
		Reason:         res.Reason,
	}, nil
}

func productToResponse(p *model.Product) dto.ProductResponse {
	volumes := make([]dto.VolumeResponse, 0, len(p.Volumes))
	for _, v := range p.Volumes {
		volumes = append(volumes, dto.VolumeResponse{
			ID:              v.ID.String(),
			Size:            v.Size,
			Unit:            v.Unit,
			PriceAdjustment: v.PriceAdjustment,
			Barcode:         v.Barcode,
		})
	}
	return dto.ProductResponse{
		ID:             p.ID.String(),
		SKU:            p.SKU,
		Barcode:        p.Barcode,
		Name:           p.Name,
		Brand:          p.Brand,
		Category:       p.Category,
		RetailPrice:    p.RetailPrice,
		WholesalePrice: p.WholesalePrice,
		Stock:          p.Stock,
		MinStock:       p.MinStock,
		Status:         p.Status,
		Volumes:        volumes,
	}
}
