package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hpmarcas/internal/model"
)

// PaymentUpdate is the reconciler's write set: only status fields and the
// payment snapshot — monetary columns stay immutable after creation.
type PaymentUpdate struct {
	PaymentStatus       model.PaymentStatus
	Status              model.OrderStatus
	PaymentExternalID   string
	PaymentMethod       string
	PaymentMethodDetail string
}

type SaleRepository interface {
	// Create persists the sale row only; items are persisted separately so a
	// failure there can be compensated by Delete. A nil tx runs standalone.
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	CreateItems(ctx context.Context, tx *gorm.DB, items []model.SaleItem) error
	// Delete is the compensating rollback when item persistence fails right
	// after the sale row was created (pre-payment only).
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByPaymentExternalID(ctx context.Context, externalID string) (*model.Sale, error)
	SetPaymentExternalID(ctx context.Context, id uuid.UUID, externalID string) error
	UpdatePaymentState(ctx context.Context, id uuid.UUID, upd PaymentUpdate) error

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	return db.Omit("Items", "Customer").Create(s).Error
}

func (r *saleRepo) CreateItems(ctx context.Context, tx *gorm.DB, items []model.SaleItem) error {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	return db.Create(&items).Error
}

func (r *saleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Sale{}, id).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items").Preload("Customer").First(&s, id).Error
	return &s, err
}

func (r *saleRepo) FindByPaymentExternalID(ctx context.Context, externalID string) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Items").Preload("Customer").
		Where("payment_external_id = ?", externalID).First(&s).Error
	return &s, err
}

func (r *saleRepo) SetPaymentExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	return r.db.WithContext(ctx).Model(&model.Sale{}).Where("id = ?", id).
		Update("payment_external_id", externalID).Error
}

func (r *saleRepo) UpdatePaymentState(ctx context.Context, id uuid.UUID, upd PaymentUpdate) error {
	return r.db.WithContext(ctx).Model(&model.Sale{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status":        upd.PaymentStatus,
			"status":                upd.Status,
			"payment_external_id":   upd.PaymentExternalID,
			"payment_method":        upd.PaymentMethod,
			"payment_method_detail": upd.PaymentMethodDetail,
		}).Error
}
