package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// メニュー（カタログ）の商品。カートからは読み取り専用。
type MenuItem struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CategoryID      string          `gorm:"type:uuid;index" json:"category_id"`
	IsAvailable     bool            `gorm:"not null;default:true" json:"is_available"`
	IsSpecial       bool            `gorm:"not null;default:false" json:"is_special"`
	PrepTimeMinutes int             `gorm:"not null;default:0" json:"prep_time_minutes"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}
