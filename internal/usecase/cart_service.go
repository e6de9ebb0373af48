package usecase

import (
	"sync"
	"time"

	repo "app/internal/repository"
	"app/internal/session"
)

// CartService はセッションごとのCartEngine/Reconciler/OfferSessionを束ねる。
// session.Hubを1回だけ購読し、遷移を該当セッションのReconcilerへ届ける。
type CartService struct {
	snapshots repo.SnapshotStore
	carts     repo.CartRepository
	menu      repo.MenuItemRepository
	offers    repo.OfferRepository
	notifier  Notifier
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	engine     *CartEngine
	reconciler *Reconciler
	offer      *OfferSession
}

func NewCartService(
	hub *session.Hub,
	snapshots repo.SnapshotStore,
	carts repo.CartRepository,
	menu repo.MenuItemRepository,
	offers repo.OfferRepository,
	notifier Notifier,
	now func() time.Time,
) *CartService {
	if now == nil {
		now = time.Now
	}

	s := &CartService{
		snapshots: snapshots,
		carts:     carts,
		menu:      menu,
		offers:    offers,
		notifier:  notifier,
		now:       now,
		sessions:  make(map[string]*sessionState),
	}

	hub.Subscribe(s.dispatch)
	return s
}

// Engine はセッションのエンジンを返す（無ければ作る）。
// 認証済みリクエストから来た場合はオーナーを合わせておく。
func (s *CartService) Engine(sessionKey string, userID string) *CartEngine {
	st := s.state(sessionKey)
	if userID != "" && st.engine.Owner() != userID {
		st.engine.SetOwner(userID)
	}
	return st.engine
}

func (s *CartService) Offer(sessionKey string) *OfferSession {
	return s.state(sessionKey).offer
}

func (s *CartService) state(sessionKey string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[sessionKey]; ok {
		return st
	}

	engine := NewCartEngine(sessionKey, s.snapshots, s.carts, s.menu, s.notifier)
	st := &sessionState{
		engine:     engine,
		reconciler: NewReconciler(engine, s.carts),
		offer:      NewOfferSession(s.offers, s.now),
	}
	s.sessions[sessionKey] = st
	return st
}

// Hubからの遷移を該当セッションへ配る
func (s *CartService) dispatch(t session.Transition) {
	st := s.state(t.SessionKey)
	st.reconciler.OnTransition(t)

	// サインアウトで適用中オファーも外す
	if t.Status == session.StatusAnonymous {
		st.offer.Remove()
	}
}

// Wait は全セッションの未確定処理を待つ。終了処理とテスト用。
func (s *CartService) Wait() {
	s.mu.Lock()
	states := make([]*sessionState, 0, len(s.sessions))
	for _, st := range s.sessions {
		states = append(states, st)
	}
	s.mu.Unlock()

	for _, st := range states {
		st.reconciler.Wait()
		st.engine.Wait()
	}
}
