package model

import "time"

// 配送先住所。デフォルトはユーザーごとに高々1件。
type Address struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Label         string    `gorm:"type:varchar(50)" json:"label,omitempty"`
	StreetAddress string    `gorm:"type:varchar(255);not null" json:"street_address"`
	City          string    `gorm:"type:varchar(100);not null" json:"city"`
	State         string    `gorm:"type:varchar(100);not null" json:"state"`
	ZipCode       string    `gorm:"type:varchar(20);not null" json:"zip_code"`
	IsDefault     bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
