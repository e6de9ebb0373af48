package usecase

import (
	"testing"

	"app/internal/domain/model"
	"app/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcilerFixture struct {
	engine     *CartEngine
	reconciler *Reconciler
	snapshots  *memSnapshotStore
	carts      *fakeCartRepo
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()

	items := testMenu()
	snapshots := newMemSnapshotStore()
	carts := newFakeCartRepo(items)
	engine := NewCartEngine("sess-1", snapshots, carts, &fakeMenuRepo{items: items}, nil)

	return &reconcilerFixture{
		engine:     engine,
		reconciler: NewReconciler(engine, carts),
		snapshots:  snapshots,
		carts:      carts,
	}
}

func (f *reconcilerFixture) transition(seq uint64, status session.Status, userID string) {
	f.reconciler.OnTransition(session.Transition{
		SessionKey: "sess-1",
		Status:     status,
		UserID:     userID,
		Seq:        seq,
	})
}

// ログイン：リモートのカートが可視カートとスナップショットを置き換える
func TestReconciler_LoginReplacesLocalWithRemote(t *testing.T) {
	f := newReconcilerFixture(t)

	// 匿名時のローカル明細
	f.engine.ReplaceAll([]model.CartLine{
		{ID: "local-1", MenuItemID: "m2", Quantity: 1},
	})

	// リモートには別の明細がある
	f.carts.seedLine(model.CartLine{ID: "srv-m1", CartID: "cart-u1", MenuItemID: "m1", Quantity: 3})

	f.transition(1, session.StatusAuthenticated, "u1")
	f.reconciler.Wait()

	assert.Equal(t, "u1", f.engine.Owner())

	lines := f.engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "srv-m1", lines[0].ID)
	assert.Equal(t, int64(3), lines[0].Quantity)

	// スナップショットもリモートで置き換わっている
	saved, err := f.snapshots.Load("sess-1")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "srv-m1", saved[0].ID)
}

// リモートが取れない間はローカル表示のまま
func TestReconciler_LoginKeepsLocalWhenRemoteFails(t *testing.T) {
	f := newReconcilerFixture(t)

	f.engine.ReplaceAll([]model.CartLine{
		{ID: "local-1", MenuItemID: "m2", Quantity: 2},
	})
	f.carts.failEnsure = true

	f.transition(1, session.StatusAuthenticated, "u1")
	f.reconciler.Wait()

	lines := f.engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "local-1", lines[0].ID)
}

// 取得が終わる前にサインアウトした場合、
// 遅れて届いた前のオーナーの明細で上書きしない
func TestReconciler_LateRemoteFetchAfterSignOutIsDiscarded(t *testing.T) {
	f := newReconcilerFixture(t)

	f.carts.seedLine(model.CartLine{ID: "srv-m1", CartID: "cart-u1", MenuItemID: "m1", Quantity: 2})

	gate := make(chan struct{})
	f.carts.blockListLines(gate)

	f.transition(1, session.StatusAuthenticated, "u1")
	f.transition(2, session.StatusAnonymous, "")

	close(gate)
	f.reconciler.Wait()

	assert.Empty(t, f.engine.Lines())
	assert.Equal(t, "", f.engine.Owner())

	// スナップショットも空のまま
	saved, err := f.snapshots.Load("sess-1")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

// サインアウトはローカルをクリアする。重複通知では何もしない。
func TestReconciler_SignOutClearsOnce(t *testing.T) {
	f := newReconcilerFixture(t)

	f.transition(1, session.StatusAuthenticated, "u1")
	f.reconciler.Wait()

	f.engine.ReplaceAll([]model.CartLine{
		{ID: "l1", MenuItemID: "m1", Quantity: 1},
		{ID: "l2", MenuItemID: "m2", Quantity: 2},
		{ID: "l3", MenuItemID: "m3", Quantity: 3},
	})

	f.transition(2, session.StatusAnonymous, "")

	assert.Empty(t, f.engine.Lines())
	assert.Equal(t, "", f.engine.Owner())
	assert.Equal(t, 1, f.snapshots.clearCount())

	// 同じサインアウトの再通知
	f.transition(3, session.StatusAnonymous, "")

	assert.Equal(t, 1, f.snapshots.clearCount())
}

// 認証失敗で匿名へ戻るケースでは匿名カートに触れない
func TestReconciler_FailedLoginKeepsAnonymousCart(t *testing.T) {
	f := newReconcilerFixture(t)

	f.engine.ReplaceAll([]model.CartLine{
		{ID: "local-1", MenuItemID: "m1", Quantity: 1},
	})

	f.transition(1, session.StatusAuthenticating, "")
	f.transition(2, session.StatusAnonymous, "")

	lines := f.engine.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "local-1", lines[0].ID)
	assert.Zero(t, f.snapshots.clearCount())
}

// 同じ通番の再観測（再配送）は無視する
func TestReconciler_StaleSeqIgnored(t *testing.T) {
	f := newReconcilerFixture(t)

	f.transition(1, session.StatusAuthenticated, "u1")
	f.reconciler.Wait()
	require.Equal(t, "u1", f.engine.Owner())

	// 過去のサインアウト通知が遅れて届いても効果なし
	f.transition(1, session.StatusAnonymous, "")

	assert.Equal(t, "u1", f.engine.Owner())
	assert.Zero(t, f.snapshots.clearCount())
}
