package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 追加時点のメニュー情報スナップショット。
// ローカル表示用の非正規化データで、DBには保存しない。
type ItemSnapshot struct {
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	IsAvailable bool            `json:"is_available"`
}

// カートの明細。
// 同一メニューは1明細（cart_id, menu_item_id でユニーク）。
type CartLine struct {
	ID             string       `gorm:"type:uuid;primaryKey" json:"id"`
	CartID         string       `gorm:"type:uuid;not null;index:idx_cart_menu_item,unique" json:"cart_id"`
	MenuItemID     string       `gorm:"type:uuid;not null;index:idx_cart_menu_item,unique" json:"menu_item_id"`
	Quantity       int64        `gorm:"not null" json:"quantity"`
	SpecialRequest string       `gorm:"type:text" json:"special_request,omitempty"`
	Item           ItemSnapshot `gorm:"-" json:"item"`
	CreatedAt      time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
