package repository

import (
	"context"

	"app/internal/domain/model"
)

type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)
	ListByUserID(ctx context.Context, userID string) ([]model.Address, error)
	FindByID(ctx context.Context, addressID string) (model.Address, error)
	Update(ctx context.Context, address model.Address) error
	Delete(ctx context.Context, addressID string) error
	// SetDefault はuserIDの既存デフォルトを外してからaddressIDに付け替える
	SetDefault(ctx context.Context, userID string, addressID string) error
}
