package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type MenuItemGormRepository struct {
	db *gorm.DB
}

func NewMenuItemGormRepository(db *gorm.DB) *MenuItemGormRepository {
	return &MenuItemGormRepository{db: db}
}

func (r *MenuItemGormRepository) FindByID(ctx context.Context, menuItemID string) (model.MenuItem, error) {
	var m model.MenuItem

	err := r.db.WithContext(ctx).
		Where("id = ?", menuItemID).
		First(&m).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MenuItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.MenuItem{}, err
	}
	return m, nil
}

func (r *MenuItemGormRepository) List(ctx context.Context, q repo.MenuItemListQuery) ([]model.MenuItem, error) {
	db := r.db.WithContext(ctx).Model(&model.MenuItem{})

	if q.CategoryID != "" {
		db = db.Where("category_id = ?", q.CategoryID)
	}
	if q.AvailableOnly {
		db = db.Where("is_available = ?", true)
	}

	var items []model.MenuItem
	if err := db.Order("name asc").Find(&items).Error; err != nil {
		return []model.MenuItem{}, err
	}
	return items, nil
}

func (r *MenuItemGormRepository) ListCategories(ctx context.Context) ([]model.MenuCategory, error) {
	var cats []model.MenuCategory

	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order asc").
		Find(&cats).Error
	if err != nil {
		return []model.MenuCategory{}, err
	}
	return cats, nil
}
