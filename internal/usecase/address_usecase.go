package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

// AddressUsecase は配送先住所のCRUDとデフォルト指定。
type AddressUsecase struct {
	addresses repo.AddressRepository
}

func NewAddressUsecase(addresses repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

type AddressInput struct {
	Label         string `json:"label"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`
}

func (in AddressInput) validate() error {
	if strings.TrimSpace(in.StreetAddress) == "" {
		return NewHTTPError(http.StatusBadRequest, "street_address required")
	}
	if strings.TrimSpace(in.City) == "" {
		return NewHTTPError(http.StatusBadRequest, "city required")
	}
	if strings.TrimSpace(in.State) == "" {
		return NewHTTPError(http.StatusBadRequest, "state required")
	}
	if strings.TrimSpace(in.ZipCode) == "" {
		return NewHTTPError(http.StatusBadRequest, "zip_code required")
	}
	return nil
}

func (u *AddressUsecase) List(ctx context.Context, userID string) ([]model.Address, error) {
	if userID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

// Create は住所を登録する。ユーザーの1件目は自動でデフォルトになる。
func (u *AddressUsecase) Create(ctx context.Context, userID string, in AddressInput) (model.Address, error) {
	if userID == "" {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Address{}, err
	}

	existing, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	created, err := u.addresses.Create(ctx, model.Address{
		ID:            uuid.NewString(),
		UserID:        userID,
		Label:         strings.TrimSpace(in.Label),
		StreetAddress: strings.TrimSpace(in.StreetAddress),
		City:          strings.TrimSpace(in.City),
		State:         strings.TrimSpace(in.State),
		ZipCode:       strings.TrimSpace(in.ZipCode),
		IsDefault:     len(existing) == 0,
	})
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID string, addressID string, in AddressInput) (model.Address, error) {
	if userID == "" {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Address{}, err
	}

	addr, err := u.findOwned(ctx, userID, addressID)
	if err != nil {
		return model.Address{}, err
	}

	addr.Label = strings.TrimSpace(in.Label)
	addr.StreetAddress = strings.TrimSpace(in.StreetAddress)
	addr.City = strings.TrimSpace(in.City)
	addr.State = strings.TrimSpace(in.State)
	addr.ZipCode = strings.TrimSpace(in.ZipCode)

	if err := u.addresses.Update(ctx, addr); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Address{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return addr, nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID string, addressID string) error {
	if userID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if _, err := u.findOwned(ctx, userID, addressID); err != nil {
		return err
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID string, addressID string) error {
	if userID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if _, err := u.findOwned(ctx, userID, addressID); err != nil {
		return err
	}

	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 他人の住所は404扱い（存在を漏らさない）
func (u *AddressUsecase) findOwned(ctx context.Context, userID string, addressID string) (model.Address, error) {
	if addressID == "" {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	addr, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if addr.UserID != userID {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return addr, nil
}
