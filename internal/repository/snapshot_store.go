package repository

import "app/internal/domain/model"

// ローカルスナップショットの契約。
// セッションごとに明細配列を丸ごと保存する。
// Loadは壊れたデータをエラーにせず空として扱う（形が不正なレコードは捨てる）。
// Saveは同期的で、保存値を常に全上書きする。
type SnapshotStore interface {
	Load(sessionKey string) ([]model.CartLine, error)
	Save(sessionKey string, lines []model.CartLine) error
	Clear(sessionKey string) error
}
