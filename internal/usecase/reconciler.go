package usecase

import (
	"context"
	"sync"

	repo "app/internal/repository"
	"app/internal/session"
)

// Reconciler は認証状態の遷移に合わせてローカルとリモートを揃える。
// (直前の状態, 新しい状態) に対する純粋なreducerとして動き、
// 本当に状態が変わったときだけ効果を出す。
//
//	anonymous -> authenticated: ローカルスナップショットを即時表示し、
//	  その後リモートのカートで可視カートとスナップショットを全置換（リモートが正）。
//	  匿名時の明細はマージしない。
//	-> anonymous: ローカルを無条件クリア。同じサインアウトの再通知では何もしない。
//	-> authenticating: 何もしない待ち状態。
type Reconciler struct {
	engine *CartEngine
	carts  repo.CartRepository

	mu         sync.Mutex
	lastStatus session.Status
	lastUserID string
	lastSeq    uint64

	wg sync.WaitGroup
}

func NewReconciler(engine *CartEngine, carts repo.CartRepository) *Reconciler {
	return &Reconciler{
		engine:     engine,
		carts:      carts,
		lastStatus: session.StatusAnonymous,
	}
}

// session.Hubの購読口。
func (r *Reconciler) OnTransition(t session.Transition) {
	r.mu.Lock()

	// 再配送（同じ通番の再観測）は無視
	if t.Seq != 0 && t.Seq <= r.lastSeq {
		r.mu.Unlock()
		return
	}
	r.lastSeq = t.Seq

	// 実質同じ状態への遷移は効果を出さない（重複クリア抑止）
	if t.Status == r.lastStatus && t.UserID == r.lastUserID {
		r.mu.Unlock()
		return
	}

	prev := r.lastStatus
	r.lastStatus = t.Status
	r.lastUserID = t.UserID
	r.mu.Unlock()

	switch t.Status {
	case session.StatusAuthenticating:
		// 待ち状態。可視状態は変えない。

	case session.StatusAuthenticated:
		r.engine.SetOwner(t.UserID)
		// まずローカルを楽観表示
		r.engine.AdoptSnapshot()
		// その後リモートで置き換え。epochを控えておき、
		// 取得中にサインアウトされたら結果を捨てる。
		epoch := r.engine.epochNow()
		r.wg.Add(1)
		go r.refreshFromRemote(epoch, t.UserID)

	case session.StatusAnonymous:
		r.engine.SetOwner("")
		// クリアするのはサインアウト（authenticatedからの遷移）だけ。
		// 認証失敗で匿名へ戻るケースでは匿名カートに触れない。
		if prev == session.StatusAuthenticated {
			r.engine.ClearLocal()
		}
	}
}

// リモートのカートを取得して可視カートを全置換する。
// 置換はログイン時に控えたepochと一致するときだけ反映される。
// 取得が終わる前にサインアウト（や再ログイン）があった場合、
// 前のオーナーの明細で上書きしてはいけないので結果ごと捨てる。
func (r *Reconciler) refreshFromRemote(epoch uint64, userID string) {
	defer r.wg.Done()
	ctx := context.Background()

	cart, err := r.carts.EnsureCart(ctx, userID)
	if err != nil {
		// リモートが取れない間はローカル表示のまま
		return
	}
	r.engine.setCartIDAt(epoch, cart.ID)

	lines, err := r.carts.ListLines(ctx, cart.ID)
	if err != nil {
		return
	}

	r.engine.replaceAllAt(epoch, lines)
}

// Wait は進行中のリモート取得を待つ。テストと終了処理用。
func (r *Reconciler) Wait() {
	r.wg.Wait()
}
