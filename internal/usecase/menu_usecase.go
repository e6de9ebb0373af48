package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// MenuUsecase は公開メニューの参照。
type MenuUsecase struct {
	menuRepo repo.MenuItemRepository
}

func NewMenuUsecase(menuRepo repo.MenuItemRepository) *MenuUsecase {
	return &MenuUsecase{menuRepo: menuRepo}
}

type MenuListInput struct {
	CategoryID string
}

func (u *MenuUsecase) ListItems(ctx context.Context, in MenuListInput) ([]model.MenuItem, error) {
	items, err := u.menuRepo.List(ctx, repo.MenuItemListQuery{
		CategoryID:    in.CategoryID,
		AvailableOnly: true,
	})
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *MenuUsecase) GetItem(ctx context.Context, menuItemID string) (model.MenuItem, error) {
	if menuItemID == "" {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	item, err := u.menuRepo.FindByID(ctx, menuItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return item, nil
}

func (u *MenuUsecase) ListCategories(ctx context.Context) ([]model.MenuCategory, error) {
	cats, err := u.menuRepo.ListCategories(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cats, nil
}
