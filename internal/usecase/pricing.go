package usecase

import (
	"app/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 料金計算のルール。configから渡す。
type PricingRules struct {
	TaxRate               decimal.Decimal // 例: 0.08
	FreeDeliveryThreshold decimal.Decimal // これを超えたら送料無料（ちょうどは有料）
	StandardDeliveryFee   decimal.Decimal
}

// カートから導出する内訳。保存しない一時値で、毎回計算し直す。
type PriceBreakdown struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// Subtotal = Σ 単価×数量
func Subtotal(lines []model.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Item.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return total
}

// ComputeBreakdown は内訳を計算する純粋関数。入力は変更しない。
// offerは適用済み（検証済み）のものを渡す前提。nilなら割引なし。
//
//	discount = percentage ? min(subtotal*value/100, maxDiscount) : value
//	tax      = (subtotal - discount) * taxRate （2桁丸め）
//	delivery = subtotal > threshold ? 0 : 標準送料
//	total    = max(0, subtotal + tax + delivery - discount)
func ComputeBreakdown(lines []model.CartLine, offer *model.Offer, rules PricingRules) PriceBreakdown {
	subtotal := Subtotal(lines)

	discount := decimal.Zero
	if offer != nil {
		switch offer.DiscountType {
		case model.DiscountTypePercentage:
			discount = subtotal.Mul(offer.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
			if offer.MaxDiscount != nil && discount.GreaterThan(*offer.MaxDiscount) {
				discount = *offer.MaxDiscount
			}
		case model.DiscountTypeFixed:
			discount = offer.DiscountValue
		}
	}

	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(rules.TaxRate).Round(2)

	deliveryFee := rules.StandardDeliveryFee
	if subtotal.GreaterThan(rules.FreeDeliveryThreshold) {
		deliveryFee = decimal.Zero
	}

	total := subtotal.Add(tax).Add(deliveryFee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return PriceBreakdown{
		Subtotal:    subtotal,
		Discount:    discount,
		Tax:         tax,
		DeliveryFee: deliveryFee,
		Total:       total,
	}
}
