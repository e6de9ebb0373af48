package validator

import (
	"errors"
	"strings"

	"app/internal/domain/model"
)

var (
	// 入力が不正
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrNoteTooLong     = errors.New("special request too long")
)

const maxSpecialRequestLen = 500

// 明細の形チェック。スナップショットのロード時に使う。
// 必須フィールドが欠けたレコードは捨てる対象。
func ValidLineShape(l model.CartLine) bool {
	if l.ID == "" || l.MenuItemID == "" {
		return false
	}
	if l.Quantity < 1 {
		return false
	}
	return true
}

// 追加・変更の入力を検証
func ValidateMutation(quantity int64, specialRequest string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if len(strings.TrimSpace(specialRequest)) > maxSpecialRequestLen {
		return ErrNoteTooLong
	}
	return nil
}
