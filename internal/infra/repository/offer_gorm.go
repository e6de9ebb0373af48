package repository

import (
	"context"
	"errors"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type OfferGormRepository struct {
	db *gorm.DB
}

func NewOfferGormRepository(db *gorm.DB) *OfferGormRepository {
	return &OfferGormRepository{db: db}
}

// codeは大文字正規化して照合
func (r *OfferGormRepository) FindByCode(ctx context.Context, code string) (model.Offer, error) {
	var o model.Offer

	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&o).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Offer{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Offer{}, err
	}
	return o, nil
}

func (r *OfferGormRepository) IncrementUsedCount(ctx context.Context, offerID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ?", offerID).
		Update("used_count", gorm.Expr("used_count + 1"))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
