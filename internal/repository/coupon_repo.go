package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"hpmarcas/internal/model"
)

// ErrCouponExhausted is returned by Redeem when the guarded increment finds
// the usage cap already reached.
var ErrCouponExhausted = errors.New("cupom esgotado")

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)
	// Redeem atomically increments used_count and records the usage row. The
	// increment is guarded in the UPDATE's WHERE clause, not read-modify-write
	// in request code, so concurrent redemptions cannot slip past the cap.
	Redeem(ctx context.Context, usage *model.CouponUsage) error
}

type couponRepo struct{ db *gorm.DB }

func NewCouponRepository(db *gorm.DB) CouponRepository { return &couponRepo{db: db} }

func (r *couponRepo) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	return &c, err
}

func (r *couponRepo) Redeem(ctx context.Context, usage *model.CouponUsage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Coupon{}).
			Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", usage.CouponID).
			Update("used_count", gorm.Expr("used_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCouponExhausted
		}
		return tx.Create(usage).Error
	})
}
