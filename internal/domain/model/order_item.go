package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文の明細。メニュー名と単価は確定時点のスナップショット。
type OrderItem struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID           string          `gorm:"type:uuid;not null;index" json:"order_id"`
	MenuItemID        string          `gorm:"type:uuid;not null;index" json:"menu_item_id"`
	NameSnapshot      string          `gorm:"type:varchar(255);not null" json:"name_snapshot"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price_snapshot"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	SpecialRequest    string          `gorm:"type:text" json:"special_request,omitempty"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
