package repository

import (
	"context"

	"app/internal/domain/model"
)

// リモートカートの契約。
// carts / cart_lines の2テーブルに対するCRUD。
type CartRepository interface {
	// オーナーのカートを取得し、無ければ作成する。
	// 並行呼び出しでも重複行は作らない。
	EnsureCart(ctx context.Context, ownerID string) (model.Cart, error)

	// カートの明細一覧。menu_itemsをJOINしてItemスナップショットを埋める。
	ListLines(ctx context.Context, cartID string) ([]model.CartLine, error)

	// 同一メニューの明細があれば数量・リクエストをそのまま上書き、
	// 無ければ新規作成する（加算はしない。加算は呼び出し側の責務）。
	UpsertLine(ctx context.Context, cartID string, menuItemID string, quantity int64, specialRequest string) (model.CartLine, error)

	DeleteLine(ctx context.Context, lineID string) error
	DeleteAllLines(ctx context.Context, cartID string) error
}
