package session

import "sync"

// 認証状態。Authenticatingは認証処理中の待ち状態。
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
)

// 認証状態の遷移通知。
// Seqはセッションごとの通番で、同じ遷移の再配送を検知するために使う。
type Transition struct {
	SessionKey string
	Status     Status
	UserID     string // Authenticatedのときのみ
	Seq        uint64
}

type Subscriber func(t Transition)

// プロセス内のsubscribe/notifyハブ。
// 認証状態の変化はここを通してのみ配る。
type Hub struct {
	mu   sync.Mutex
	subs []Subscriber
	seq  map[string]uint64 // sessionKey -> 次の通番
	cur  map[string]Status // sessionKey -> 現在の状態
}

func NewHub() *Hub {
	return &Hub{
		seq: make(map[string]uint64),
		cur: make(map[string]Status),
	}
}

func (h *Hub) Subscribe(fn Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
}

// 状態を更新して購読者へ通知する。
// 同じ状態への遷移でも通知する（重複抑止は購読側の責務）。
func (h *Hub) Publish(sessionKey string, status Status, userID string) Transition {
	h.mu.Lock()

	h.seq[sessionKey]++
	t := Transition{
		SessionKey: sessionKey,
		Status:     status,
		UserID:     userID,
		Seq:        h.seq[sessionKey],
	}
	h.cur[sessionKey] = status

	subs := make([]Subscriber, len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, fn := range subs {
		fn(t)
	}

	return t
}

// 現在の状態。未登録セッションはAnonymous。
func (h *Hub) Current(sessionKey string) Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.cur[sessionKey]; ok {
		return s
	}
	return StatusAnonymous
}
