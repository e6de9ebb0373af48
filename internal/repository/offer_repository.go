package repository

import (
	"context"

	"app/internal/domain/model"
)

// オファー参照。codeは大文字に正規化して照合する。
type OfferRepository interface {
	FindByCode(ctx context.Context, code string) (model.Offer, error)
	// 注文確定時にused_countを+1する
	IncrementUsedCount(ctx context.Context, offerID string) error
}
