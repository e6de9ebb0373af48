package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

type DeliveryType string

const (
	DeliveryTypeImmediate DeliveryType = "immediate"
	DeliveryTypeScheduled DeliveryType = "scheduled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// 確定時点の配送先スナップショット。住所が後から編集されても注文には残る。
type AddressSnapshot struct {
	Label         string `gorm:"type:varchar(50)" json:"label,omitempty"`
	StreetAddress string `gorm:"type:varchar(255)" json:"street_address"`
	City          string `gorm:"type:varchar(100)" json:"city"`
	State         string `gorm:"type:varchar(100)" json:"state"`
	ZipCode       string `gorm:"type:varchar(20)" json:"zip_code"`
}

// 確定済み注文。金額は確定時点の内訳をそのまま保存する。
type Order struct {
	ID                  string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber         string          `gorm:"type:varchar(20);not null;uniqueIndex" json:"order_number"`
	UserID              string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Status              OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	DiscountAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	TaxAmount           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	DeliveryFee         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"delivery_fee"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	OfferID             string          `gorm:"type:uuid" json:"offer_id,omitempty"`
	DeliveryAddressID   string          `gorm:"type:uuid;not null" json:"delivery_address_id"`
	DeliveryAddress     AddressSnapshot `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	DeliveryType        DeliveryType    `gorm:"type:varchar(20);not null" json:"delivery_type"`
	ScheduledFor        *time.Time      `json:"scheduled_for,omitempty"`
	PaymentMethod       string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus       PaymentStatus   `gorm:"type:varchar(20);not null" json:"payment_status"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions,omitempty"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
