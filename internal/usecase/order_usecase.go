package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderUsecase はカートからの注文確定と注文照会。
type OrderUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	items  repo.OrderItemRepository
	rules  PricingRules
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	rules PricingRules,
) *OrderUsecase {
	return &OrderUsecase{tx: tx, orders: orders, items: items, rules: rules}
}

type PlaceOrderInput struct {
	DeliveryAddressID   string
	DeliveryType        string     // 省略時はimmediate
	ScheduledFor        *time.Time // scheduledのとき必須
	PaymentMethod       string
	SpecialInstructions string
	Offer               *model.Offer // 適用済みオファー（未適用ならnil）
}

type OrderItemOutput struct {
	MenuItemID     string          `json:"menu_item_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int64           `json:"quantity"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	SpecialRequest string          `json:"special_request,omitempty"`
}

type OrderOutput struct {
	ID                  string                `json:"id"`
	OrderNumber         string                `json:"order_number"`
	Status              model.OrderStatus     `json:"status"`
	Subtotal            decimal.Decimal       `json:"subtotal"`
	DiscountAmount      decimal.Decimal       `json:"discount_amount"`
	TaxAmount           decimal.Decimal       `json:"tax_amount"`
	DeliveryFee         decimal.Decimal       `json:"delivery_fee"`
	TotalAmount         decimal.Decimal       `json:"total_amount"`
	DeliveryAddress     model.AddressSnapshot `json:"delivery_address"`
	DeliveryType        model.DeliveryType    `json:"delivery_type"`
	ScheduledFor        *time.Time            `json:"scheduled_for,omitempty"`
	PaymentMethod       string                `json:"payment_method"`
	PaymentStatus       model.PaymentStatus   `json:"payment_status"`
	SpecialInstructions string                `json:"special_instructions,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	Items               []OrderItemOutput     `json:"items"`
}

var paymentMethods = map[string]bool{
	"card":   true,
	"paypal": true,
	"cod":    true,
}

// PlaceOrder はリモートカートの内容で注文を確定する。
// 内訳の再計算・注文作成・オファー使用回数の加算・カートの全削除を1トランザクションで行う。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !paymentMethods[in.PaymentMethod] {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	if in.DeliveryAddressID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "delivery address required")
	}

	deliveryType := model.DeliveryType(in.DeliveryType)
	if deliveryType == "" {
		deliveryType = model.DeliveryTypeImmediate
	}
	var scheduledFor *time.Time
	switch deliveryType {
	case model.DeliveryTypeImmediate:
		// 即時配達に予約時刻は持たせない
	case model.DeliveryTypeScheduled:
		if in.ScheduledFor == nil {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "scheduled_for required")
		}
		scheduledFor = in.ScheduledFor
	default:
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid delivery_type")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		addr, err := r.Addresses().FindByID(ctx, in.DeliveryAddressID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "invalid delivery address")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		// 他人の住所は使えない
		if addr.UserID != userID {
			return NewHTTPError(http.StatusBadRequest, "invalid delivery address")
		}

		cart, err := r.Carts().EnsureCart(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		lines, err := r.Carts().ListLines(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(lines) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		// 確定時点でオファーの最低注文額を再チェック
		subtotal := Subtotal(lines)
		if in.Offer != nil && subtotal.LessThan(in.Offer.MinOrderAmount) {
			return NewHTTPError(http.StatusBadRequest, "minimum order not met")
		}

		bd := ComputeBreakdown(lines, in.Offer, u.rules)

		snap := model.AddressSnapshot{
			Label:         addr.Label,
			StreetAddress: addr.StreetAddress,
			City:          addr.City,
			State:         addr.State,
			ZipCode:       addr.ZipCode,
		}

		now := time.Now()
		order := model.Order{
			ID:                  uuid.NewString(),
			OrderNumber:         newOrderNumber(),
			UserID:              userID,
			Status:              model.OrderStatusPlaced,
			Subtotal:            bd.Subtotal,
			DiscountAmount:      bd.Discount,
			TaxAmount:           bd.Tax,
			DeliveryFee:         bd.DeliveryFee,
			TotalAmount:         bd.Total,
			DeliveryAddressID:   addr.ID,
			DeliveryAddress:     snap,
			DeliveryType:        deliveryType,
			ScheduledFor:        scheduledFor,
			PaymentMethod:       in.PaymentMethod,
			PaymentStatus:       model.PaymentStatusPending,
			SpecialInstructions: in.SpecialInstructions,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if in.Offer != nil {
			order.OfferID = in.Offer.ID
		}

		if err := r.Orders().Create(ctx, order); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orderItems := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			orderItems = append(orderItems, model.OrderItem{
				MenuItemID:        l.MenuItemID,
				NameSnapshot:      l.Item.Name,
				UnitPriceSnapshot: l.Item.UnitPrice,
				Quantity:          l.Quantity,
				TotalPrice:        l.Item.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)),
				SpecialRequest:    l.SpecialRequest,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if in.Offer != nil {
			if err := r.Offers().IncrementUsedCount(ctx, in.Offer.ID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.Carts().DeleteAllLines(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// GetOrder は注文を1件返す（所有チェックつき）。
func (u *OrderUsecase) GetOrder(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 他人の注文は404扱い
	if order.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	items, err := u.items.ListByOrderID(ctx, order.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderOutput(order, items), nil
}

// CancelOrder は調理が始まる前（placed）の注文を利用者都合で取り消す。
// それ以降のステータスでは409を返す。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID string, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 他人の注文は404扱い
	if order.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	if order.Status != model.OrderStatusPlaced {
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "order already in progress")
	}

	if err := u.orders.UpdateStatus(ctx, order.ID, model.OrderStatusCancelled); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	order.Status = model.OrderStatusCancelled

	items, err := u.items.ListByOrderID(ctx, order.ID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderOutput(order, items), nil
}

type OrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// ListOrders はユーザーの注文一覧（新しい順）。
func (u *OrderUsecase) ListOrders(ctx context.Context, userID string, page int, limit int) (OrderListOutput, error) {
	if userID == "" {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.items.ListByOrderID(ctx, o.ID)
		if err != nil {
			return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}

	return OrderListOutput{Orders: outs, Total: total, Page: page, Limit: limit}, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			MenuItemID:     it.MenuItemID,
			Name:           it.NameSnapshot,
			UnitPrice:      it.UnitPriceSnapshot,
			Quantity:       it.Quantity,
			TotalPrice:     it.TotalPrice,
			SpecialRequest: it.SpecialRequest,
		})
	}

	return OrderOutput{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		Status:              o.Status,
		Subtotal:            o.Subtotal,
		DiscountAmount:      o.DiscountAmount,
		TaxAmount:           o.TaxAmount,
		DeliveryFee:         o.DeliveryFee,
		TotalAmount:         o.TotalAmount,
		DeliveryAddress:     o.DeliveryAddress,
		DeliveryType:        o.DeliveryType,
		ScheduledFor:        o.ScheduledFor,
		PaymentMethod:       o.PaymentMethod,
		PaymentStatus:       o.PaymentStatus,
		SpecialInstructions: o.SpecialInstructions,
		CreatedAt:           o.CreatedAt,
		Items:               outItems,
	}
}

// ORD-XXXXXXXX 形式の注文番号
func newOrderNumber() string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "ORD-" + frag
}
