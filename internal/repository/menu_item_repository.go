package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

type MenuItemListQuery struct {
	CategoryID    string
	AvailableOnly bool
}

// メニュー参照（カートからは読み取り専用）
type MenuItemRepository interface {
	FindByID(ctx context.Context, menuItemID string) (model.MenuItem, error)
	List(ctx context.Context, q MenuItemListQuery) ([]model.MenuItem, error)
	ListCategories(ctx context.Context) ([]model.MenuCategory, error)
}
