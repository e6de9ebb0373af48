package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// オーナーのカートを取得し、無ければ作成。
// 同時に呼ばれても行ロック＋リトライで重複は作らない。
func (r *CartGormRepository) EnsureCart(ctx context.Context, ownerID string) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ?", ownerID).
			First(&cart).Error

		if findErr == nil {
			return nil
		}

		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		// 無ければ作る
		now := time.Now()
		newCart := model.Cart{
			ID:        uuid.NewString(),
			OwnerID:   ownerID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := tx.Create(&newCart).Error; err != nil {
			// owner_idのユニーク制約に負けたら既存を拾い直す
			retryErr := tx.
				Where("owner_id = ?", ownerID).
				First(&cart).Error
			if retryErr == nil {
				return nil
			}
			return err
		}

		cart = newCart
		return nil
	})

	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// 明細一覧。menu_itemsをJOINして表示用スナップショットを埋め直す。
func (r *CartGormRepository) ListLines(ctx context.Context, cartID string) ([]model.CartLine, error) {
	var lines []model.CartLine

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at asc").
		Find(&lines).Error; err != nil {
		return []model.CartLine{}, err
	}

	for i := range lines {
		var item model.MenuItem
		err := r.db.WithContext(ctx).
			Where("id = ?", lines[i].MenuItemID).
			First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return []model.CartLine{}, err
		}

		lines[i].Item = model.ItemSnapshot{
			Name:        item.Name,
			UnitPrice:   item.Price,
			IsAvailable: item.IsAvailable,
		}
	}

	return lines, nil
}

// 同一メニューの明細は数量・リクエストを上書き、無ければ新規作成。
// 数量の加算はしない（合計は呼び出し側が計算して渡す）。
func (r *CartGormRepository) UpsertLine(ctx context.Context, cartID string, menuItemID string, quantity int64, specialRequest string) (model.CartLine, error) {
	if quantity <= 0 {
		return model.CartLine{}, errors.New("invalid quantity")
	}

	var out model.CartLine

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line model.CartLine

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND menu_item_id = ?", cartID, menuItemID).
			First(&line).Error

		if err == nil {
			res := tx.Model(&model.CartLine{}).
				Where("id = ?", line.ID).
				Updates(map[string]interface{}{
					"quantity":        quantity,
					"special_request": specialRequest,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}

			line.Quantity = quantity
			line.SpecialRequest = specialRequest
			out = line
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 無い場合は新規作成
		now := time.Now()
		newLine := model.CartLine{
			ID:             uuid.NewString(),
			CartID:         cartID,
			MenuItemID:     menuItemID,
			Quantity:       quantity,
			SpecialRequest: specialRequest,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := tx.Create(&newLine).Error; err != nil {
			return err
		}

		out = newLine
		return nil
	})

	if err != nil {
		return model.CartLine{}, err
	}
	return out, nil
}

// 明細を削除
func (r *CartGormRepository) DeleteLine(ctx context.Context, lineID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", lineID).
		Delete(&model.CartLine{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 指定カートの明細を全削除
func (r *CartGormRepository) DeleteAllLines(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartLine{}).Error
}
