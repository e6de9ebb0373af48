package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 楽観更新に失敗したときのユーザー向け通知
type Notice struct {
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	Retryable bool   `json:"retryable"`
}

type Notifier interface {
	Notify(n Notice)
}

// 補償ログのエントリ。失敗したmutationだけを打ち消すための情報。
// replaceAllはClear用で、prevAllごと戻す。
// それ以外はmenuItemIDの明細を変更前の値へ戻す（prevがnilなら新規追加の取り消し）。
type compensation struct {
	epoch      uint64
	replaceAll bool
	prevAll    []model.CartLine
	menuItemID string
	prev       *model.CartLine
}

// CartEngine は1セッション分のカートを持つ。
// 変更は (1)ローカルへ同期反映 (2)リモートへ非同期確定 (3)失敗時は変更前の値へ巻き戻し、の順。
// 巻き戻しはmutation単位の補償ログで行い、並行する別のmutationの結果は消さない。
// 並行する変更はローカルキャッシュ上でlast-writer-winsになる（仕様上の割り切り）。
//
// epochはオーナーの切り替え・ローカルクリア・全置換のたびに進む通番。
// 非同期確定の遅延書き込みはepochが進んでいたら破棄する
// （サインアウト後に前のオーナーの明細が復活するのを防ぐ）。
type CartEngine struct {
	sessionKey string
	snapshots  repo.SnapshotStore
	carts      repo.CartRepository
	menu       repo.MenuItemRepository
	notifier   Notifier

	mu      sync.Mutex
	ownerID string
	cartID  string
	epoch   uint64
	visible []model.CartLine
	pending map[string]compensation // mutationID -> 補償ログ

	wg sync.WaitGroup
}

// 起動時はローカルスナップショットを可視カートとして採用する（リロード耐性）。
func NewCartEngine(
	sessionKey string,
	snapshots repo.SnapshotStore,
	carts repo.CartRepository,
	menu repo.MenuItemRepository,
	notifier Notifier,
) *CartEngine {
	lines, err := snapshots.Load(sessionKey)
	if err != nil || lines == nil {
		lines = []model.CartLine{}
	}

	return &CartEngine{
		sessionKey: sessionKey,
		snapshots:  snapshots,
		carts:      carts,
		menu:       menu,
		notifier:   notifier,
		visible:    lines,
		pending:    make(map[string]compensation),
	}
}

// 認証オーナーを差し替える。サインアウトは空文字。
// epochを進めるので、前のオーナー宛ての遅延書き込みはここで無効になる。
func (e *CartEngine) SetOwner(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ownerID = userID
	e.cartID = ""
	e.epoch++
}

func (e *CartEngine) Owner() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ownerID
}

// 可視カートのコピー
func (e *CartEngine) Lines() []model.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneLines(e.visible)
}

// AddItem はメニューをカートへ追加する。
// 未認証なら401で拒否（ログインを促す）。
// 同一メニューは数量を加算し、リクエスト文は指定があるときだけ上書き。
// リモート確定後はListLinesで全置換してサーバー採番のIDを取り込む。
func (e *CartEngine) AddItem(ctx context.Context, menuItemID string, quantity int64, specialRequest string) error {
	if menuItemID == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid menu_item_id")
	}
	if err := validator.ValidateMutation(quantity, specialRequest); err != nil {
		return NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// カタログから追加時点のスナップショットを取る
	item, err := e.menu.FindByID(ctx, menuItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusBadRequest, "invalid menu item")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !item.IsAvailable {
		return NewHTTPError(http.StatusBadRequest, "item unavailable")
	}

	e.mu.Lock()

	if e.ownerID == "" {
		e.mu.Unlock()
		return NewHTTPError(http.StatusUnauthorized, "login required")
	}
	owner := e.ownerID

	next := cloneLines(e.visible)

	var prevLine *model.CartLine
	var newTotalQty int64
	var note string
	found := false
	for i := range next {
		if next[i].MenuItemID == menuItemID {
			before := next[i]
			prevLine = &before
			next[i].Quantity += quantity
			if specialRequest != "" {
				next[i].SpecialRequest = specialRequest
			}
			newTotalQty = next[i].Quantity
			note = next[i].SpecialRequest
			found = true
			break
		}
	}
	if !found {
		next = append(next, model.CartLine{
			ID:             uuid.NewString(), // 仮ID。確定後にサーバー採番へ置き換わる
			MenuItemID:     menuItemID,
			Quantity:       quantity,
			SpecialRequest: specialRequest,
			Item: model.ItemSnapshot{
				Name:        item.Name,
				UnitPrice:   item.Price,
				IsAvailable: item.IsAvailable,
			},
		})
		newTotalQty = quantity
		note = specialRequest
	}

	mutID := e.applyLocked(next, compensation{menuItemID: menuItemID, prev: prevLine})
	epoch := e.epoch
	e.mu.Unlock()

	e.wg.Add(1)
	go e.confirmAdd(mutID, epoch, owner, menuItemID, newTotalQty, note, item.Name)

	return nil
}

// UpdateQuantity は明細の数量を置き換える。0以下は削除と同義。
// 明細が無ければ何もしない（エラーではない）。
func (e *CartEngine) UpdateQuantity(ctx context.Context, lineID string, quantity int64) error {
	if quantity <= 0 {
		return e.RemoveItem(ctx, lineID)
	}

	e.mu.Lock()

	idx := findLine(e.visible, lineID)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	owner := e.ownerID

	before := e.visible[idx]
	next := cloneLines(e.visible)
	next[idx].Quantity = quantity

	menuItemID := next[idx].MenuItemID
	note := next[idx].SpecialRequest

	mutID := e.applyLocked(next, compensation{menuItemID: menuItemID, prev: &before})
	epoch := e.epoch
	e.mu.Unlock()

	e.wg.Add(1)
	go e.confirmUpsert(mutID, epoch, owner, menuItemID, quantity, note)

	return nil
}

// RemoveItem は明細を削除する。無ければ何もしない。
func (e *CartEngine) RemoveItem(ctx context.Context, lineID string) error {
	e.mu.Lock()

	idx := findLine(e.visible, lineID)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	owner := e.ownerID

	before := e.visible[idx]
	next := append(cloneLines(e.visible[:idx]), cloneLines(e.visible[idx+1:])...)

	mutID := e.applyLocked(next, compensation{menuItemID: before.MenuItemID, prev: &before})
	e.mu.Unlock()

	e.wg.Add(1)
	go e.confirmDelete(mutID, owner, lineID)

	return nil
}

// Clear は全明細を削除する（ローカル・リモートとも）。
func (e *CartEngine) Clear(ctx context.Context) error {
	e.mu.Lock()

	owner := e.ownerID
	prev := cloneLines(e.visible)

	mutID := e.applyLocked([]model.CartLine{}, compensation{replaceAll: true, prevAll: prev})
	epoch := e.epoch
	e.mu.Unlock()

	e.wg.Add(1)
	go e.confirmClear(mutID, epoch, owner)

	return nil
}

// ReplaceAll は可視カートとスナップショットをまとめて置き換える。
// リモートを正としたいリコンサイルと、注文確定後のカート破棄に使う。
// epochを進めるので、置換前に飛んでいた確定処理の遅延書き込みは捨てられる。
func (e *CartEngine) ReplaceAll(lines []model.CartLine) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.epoch++
	e.visible = cloneLines(lines)
	_ = e.snapshots.Save(e.sessionKey, e.visible)
}

// AdoptSnapshot はローカルスナップショットを読み直して可視カートにする。
// ログイン直後、リモート取得が終わるまでの楽観表示に使う。
func (e *CartEngine) AdoptSnapshot() {
	lines, err := e.snapshots.Load(e.sessionKey)
	if err != nil || lines == nil {
		lines = []model.CartLine{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	e.visible = lines
}

// ClearLocal は可視カートとスナップショットを空にする。サインアウト用。
// 以降、クリア前のmutationが遅れて確定・失敗しても状態には触れない。
func (e *CartEngine) ClearLocal() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.epoch++
	e.visible = []model.CartLine{}
	_ = e.snapshots.Clear(e.sessionKey)
}

// Wait は未確定のリモート処理を待つ。終了処理とテストで使う。
func (e *CartEngine) Wait() {
	e.wg.Wait()
}

// ---- 派生値（純粋な読み取り） ----

// 合計金額 = Σ 単価×数量
func (e *CartEngine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := decimal.Zero
	for _, l := range e.visible {
		total = total.Add(l.Item.UnitPrice.Mul(decimal.NewFromInt(l.Quantity)))
	}
	return total
}

// バッジ用。ユニークなメニュー数（総数量ではない）。
func (e *CartEngine) DistinctItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]struct{}, len(e.visible))
	for _, l := range e.visible {
		seen[l.MenuItemID] = struct{}{}
	}
	return len(seen)
}

// 総数量
func (e *CartEngine) TotalUnitCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var n int64
	for _, l := range e.visible {
		n += l.Quantity
	}
	return n
}

// ---- 内部 ----

// ロック保持中に呼ぶ。次状態を反映し、補償ログへ打ち消し情報を積む。
func (e *CartEngine) applyLocked(next []model.CartLine, comp compensation) string {
	e.visible = next
	_ = e.snapshots.Save(e.sessionKey, next)

	comp.epoch = e.epoch
	mutID := uuid.NewString()
	e.pending[mutID] = comp
	return mutID
}

// 確定成功。補償ログからエントリを消すだけ。
func (e *CartEngine) settle(mutID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, mutID)
}

// 確定失敗。そのmutationの分だけ変更前の値へ戻して通知する。
// 後続のmutationが同時に走っていても、その結果には触れない。
// epochが進んでいたら（サインアウト・全置換の後）巻き戻し自体を捨てる。
// ローカルキャッシュと可視カートは常に一緒に戻す。
func (e *CartEngine) rollback(mutID string, n Notice) {
	e.mu.Lock()
	comp, ok := e.pending[mutID]
	if ok {
		delete(e.pending, mutID)
	}

	restored := false
	if ok && comp.epoch == e.epoch {
		switch {
		case comp.replaceAll:
			e.visible = cloneLines(comp.prevAll)
		case comp.prev == nil:
			// 新規追加の取り消し
			e.visible = removeByMenuItem(e.visible, comp.menuItemID)
		default:
			e.visible = restoreLine(e.visible, *comp.prev)
		}
		_ = e.snapshots.Save(e.sessionKey, e.visible)
		restored = true
	}
	e.mu.Unlock()

	if restored && e.notifier != nil {
		e.notifier.Notify(n)
	}
}

func (e *CartEngine) epochNow() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epoch
}

// リモートカートIDを覚える（Ensure済みの場合の再問い合わせ回避）。
// epochが進んでいたら別オーナーのIDなので捨てる。
func (e *CartEngine) setCartIDAt(epoch uint64, cartID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch == epoch {
		e.cartID = cartID
	}
}

// リモート取得結果での全置換。epochが一致するときだけ反映する。
// サインアウト後に届いた前オーナーの取得結果をここで落とす。
func (e *CartEngine) replaceAllAt(epoch uint64, lines []model.CartLine) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if epoch != e.epoch {
		return false
	}
	e.visible = cloneLines(lines)
	_ = e.snapshots.Save(e.sessionKey, e.visible)
	return true
}

func (e *CartEngine) ensureCart(ctx context.Context, epoch uint64, owner string) (string, error) {
	e.mu.Lock()
	cached := e.cartID
	current := e.epoch
	e.mu.Unlock()
	if cached != "" && current == epoch {
		return cached, nil
	}

	cart, err := e.carts.EnsureCart(ctx, owner)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	if e.epoch == epoch {
		e.cartID = cart.ID
	}
	e.mu.Unlock()
	return cart.ID, nil
}

// リクエストのctxは応答後に死ぬので、非同期確定はBackgroundで行う。
// タイムアウトは定義しない（未解決の間は楽観状態が残る）。
func (e *CartEngine) confirmAdd(mutID string, epoch uint64, owner string, menuItemID string, totalQty int64, note string, itemName string) {
	defer e.wg.Done()
	ctx := context.Background()

	cartID, err := e.ensureCart(ctx, epoch, owner)
	if err != nil {
		e.rollback(mutID, Notice{Title: "追加できませんでした", Detail: itemName + " をカートに追加できませんでした。もう一度お試しください。", Retryable: true})
		return
	}

	if _, err := e.carts.UpsertLine(ctx, cartID, menuItemID, totalQty, note); err != nil {
		e.rollback(mutID, Notice{Title: "追加できませんでした", Detail: itemName + " をカートに追加できませんでした。もう一度お試しください。", Retryable: true})
		return
	}

	// サーバー採番のIDを取り込むため全置換（epochが進んでいたら捨てる）
	lines, err := e.carts.ListLines(ctx, cartID)
	if err == nil {
		e.replaceAllAt(epoch, lines)
	}

	e.settle(mutID)
}

func (e *CartEngine) confirmUpsert(mutID string, epoch uint64, owner string, menuItemID string, quantity int64, note string) {
	defer e.wg.Done()
	ctx := context.Background()

	cartID, err := e.ensureCart(ctx, epoch, owner)
	if err != nil {
		e.rollback(mutID, Notice{Title: "数量を変更できませんでした", Detail: "もう一度お試しください。", Retryable: true})
		return
	}

	if _, err := e.carts.UpsertLine(ctx, cartID, menuItemID, quantity, note); err != nil {
		e.rollback(mutID, Notice{Title: "数量を変更できませんでした", Detail: "もう一度お試しください。", Retryable: true})
		return
	}

	e.settle(mutID)
}

func (e *CartEngine) confirmDelete(mutID string, owner string, lineID string) {
	defer e.wg.Done()
	ctx := context.Background()

	err := e.carts.DeleteLine(ctx, lineID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		// リモートに無いのは成功扱い。それ以外は巻き戻し。
		e.rollback(mutID, Notice{Title: "削除できませんでした", Detail: "もう一度お試しください。", Retryable: true})
		return
	}

	e.settle(mutID)
}

func (e *CartEngine) confirmClear(mutID string, epoch uint64, owner string) {
	defer e.wg.Done()
	ctx := context.Background()

	if owner == "" {
		// 未認証はローカルのみで完結
		e.settle(mutID)
		return
	}

	cartID, err := e.ensureCart(ctx, epoch, owner)
	if err != nil {
		e.rollback(mutID, Notice{Title: "カートを空にできませんでした", Detail: "もう一度お試しください。", Retryable: true})
		return
	}

	if err := e.carts.DeleteAllLines(ctx, cartID); err != nil {
		e.rollback(mutID, Notice{Title: "カートを空にできませんでした", Detail: "もう一度お試しください。", Retryable: true})
		return
	}

	e.settle(mutID)
}

// menuItemIDの明細を取り除いた新しいスライスを返す
func removeByMenuItem(lines []model.CartLine, menuItemID string) []model.CartLine {
	out := make([]model.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.MenuItemID == menuItemID {
			continue
		}
		out = append(out, l)
	}
	return out
}

// prevを同じメニューの明細へ上書きする。消えていたら末尾へ再挿入。
func restoreLine(lines []model.CartLine, prev model.CartLine) []model.CartLine {
	out := cloneLines(lines)
	for i := range out {
		if out[i].MenuItemID == prev.MenuItemID {
			out[i] = prev
			return out
		}
	}
	return append(out, prev)
}

func findLine(lines []model.CartLine, lineID string) int {
	for i := range lines {
		if lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func cloneLines(lines []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, len(lines))
	copy(out, lines)
	return out
}
