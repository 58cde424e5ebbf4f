package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hpmarcas/internal/dto"
	"hpmarcas/internal/model"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// FindActiveByIDs loads only products with status = active; callers treat
	// any requested id missing from the result as a hard failure.
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	FindVolumeByID(ctx context.Context, id uuid.UUID) (*model.Volume, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)

	// DecrementStock is a single atomic "subtract N, clamp at zero" at the
	// data layer — never a read-then-write from request code. A nil tx runs
	// outside any transaction.
	DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Volumes").First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Preload("Volumes").
		Where("id IN ? AND status = 'active'", ids).
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindVolumeByID(ctx context.Context, id uuid.UUID) (*model.Volume, error) {
	var v model.Volume
	err := r.db.WithContext(ctx).First(&v, id).Error
	return &v, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})

	switch filter.Status {
	case "all":
		// no filter
	case "inactive":
		q = q.Where("status = 'inactive'")
	default:
		q = q.Where("status = 'active'")
	}
	if filter.Barcode != "" {
		q = q.Where("barcode = ?", filter.Barcode)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Volumes").Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	return db.Model(&model.Product{}).Where("id = ?", id).
		Update("stock", gorm.Expr("GREATEST(stock - ?, 0)", qty)).Error
}
