package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// プロモーションコード。codeは大文字で正規化して保存する。
// このエンジンからは読み取り専用（used_countの加算のみ注文確定時に行う）。
type Offer struct {
	ID             string           `gorm:"type:uuid;primaryKey" json:"id"`
	Code           string           `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Title          string           `gorm:"type:varchar(255);not null" json:"title"`
	Description    string           `gorm:"type:text" json:"description"`
	DiscountType   DiscountType     `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue  decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"discount_value"`
	MinOrderAmount decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `gorm:"type:decimal(10,2)" json:"max_discount,omitempty"`
	IsActive       bool             `gorm:"not null;default:true" json:"is_active"`
	ValidFrom      time.Time        `gorm:"not null" json:"valid_from"`
	ValidUntil     time.Time        `gorm:"not null" json:"valid_until"`
	UsedCount      int64            `gorm:"not null;default:0" json:"used_count"`
	CreatedAt      time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
