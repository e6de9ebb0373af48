package usecase

import (
	"context"
	"errors"
	"sync"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// =====================
// Fake: SnapshotStore
// =====================

type memSnapshotStore struct {
	mu     sync.Mutex
	data   map[string][]model.CartLine
	clears int
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{data: make(map[string][]model.CartLine)}
}

func (s *memSnapshotStore) Load(sessionKey string) ([]model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, ok := s.data[sessionKey]
	if !ok {
		return []model.CartLine{}, nil
	}
	out := make([]model.CartLine, len(lines))
	copy(out, lines)
	return out, nil
}

func (s *memSnapshotStore) Save(sessionKey string, lines []model.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]model.CartLine, len(lines))
	copy(saved, lines)
	s.data[sessionKey] = saved
	return nil
}

func (s *memSnapshotStore) Clear(sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, sessionKey)
	s.clears++
	return nil
}

func (s *memSnapshotStore) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// =====================
// Fake: MenuItemRepository
// =====================

type fakeMenuRepo struct {
	items map[string]model.MenuItem
}

func (r *fakeMenuRepo) FindByID(ctx context.Context, menuItemID string) (model.MenuItem, error) {
	item, ok := r.items[menuItemID]
	if !ok {
		return model.MenuItem{}, repo.ErrNotFound
	}
	return item, nil
}

func (r *fakeMenuRepo) List(ctx context.Context, q repo.MenuItemListQuery) ([]model.MenuItem, error) {
	return nil, nil
}

func (r *fakeMenuRepo) ListCategories(ctx context.Context) ([]model.MenuCategory, error) {
	return nil, nil
}

// =====================
// Fake: CartRepository
// =====================

// リモートカートのインメモリ実装。
// 失敗フラグで確定系の失敗を注入できる。
type fakeCartRepo struct {
	mu    sync.Mutex
	items map[string]model.MenuItem // menuItemID -> スナップショット用
	lines map[string]model.CartLine // menuItemID -> 明細
	order []string                  // 挿入順

	failEnsure bool
	failUpsert bool
	failDelete bool

	listGate   chan struct{}                 // 非nilなら閉じられるまでListLinesを待たせる
	upsertHook func(menuItemID string) error // UpsertLineの先頭で呼ぶ。エラーで失敗注入。

	ensureCalls    int
	upsertCalls    int
	deleteCalls    int
	deleteAllCalls int
}

func newFakeCartRepo(items map[string]model.MenuItem) *fakeCartRepo {
	return &fakeCartRepo{
		items: items,
		lines: make(map[string]model.CartLine),
	}
}

func (r *fakeCartRepo) EnsureCart(ctx context.Context, ownerID string) (model.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureCalls++
	if r.failEnsure {
		return model.Cart{}, errors.New("ensure failed")
	}
	return model.Cart{ID: "cart-" + ownerID, OwnerID: ownerID}, nil
}

func (r *fakeCartRepo) ListLines(ctx context.Context, cartID string) ([]model.CartLine, error) {
	// ロックの外で待つ。待っている間も他の呼び出しを通す。
	r.mu.Lock()
	gate := r.listGate
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.CartLine, 0, len(r.order))
	for _, menuItemID := range r.order {
		line, ok := r.lines[menuItemID]
		if !ok {
			continue
		}
		if item, ok := r.items[menuItemID]; ok {
			line.Item = model.ItemSnapshot{
				Name:        item.Name,
				UnitPrice:   item.Price,
				IsAvailable: item.IsAvailable,
			}
		}
		out = append(out, line)
	}
	return out, nil
}

func (r *fakeCartRepo) UpsertLine(ctx context.Context, cartID string, menuItemID string, quantity int64, specialRequest string) (model.CartLine, error) {
	// フックはロックの外で呼ぶ。フック内で待っても他の呼び出しを塞がない。
	r.mu.Lock()
	hook := r.upsertHook
	r.mu.Unlock()
	if hook != nil {
		if err := hook(menuItemID); err != nil {
			r.mu.Lock()
			r.upsertCalls++
			r.mu.Unlock()
			return model.CartLine{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.upsertCalls++
	if r.failUpsert {
		return model.CartLine{}, errors.New("upsert failed")
	}

	line, ok := r.lines[menuItemID]
	if !ok {
		line = model.CartLine{
			ID:         "srv-" + menuItemID,
			CartID:     cartID,
			MenuItemID: menuItemID,
		}
		r.order = append(r.order, menuItemID)
	}
	line.Quantity = quantity
	line.SpecialRequest = specialRequest
	r.lines[menuItemID] = line
	return line, nil
}

func (r *fakeCartRepo) DeleteLine(ctx context.Context, lineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteCalls++
	if r.failDelete {
		return errors.New("delete failed")
	}

	for menuItemID, line := range r.lines {
		if line.ID == lineID {
			delete(r.lines, menuItemID)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *fakeCartRepo) DeleteAllLines(ctx context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteAllCalls++
	r.lines = make(map[string]model.CartLine)
	r.order = nil
	return nil
}

func (r *fakeCartRepo) blockListLines(gate chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listGate = gate
}

func (r *fakeCartRepo) setUpsertHook(hook func(menuItemID string) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertHook = hook
}

func (r *fakeCartRepo) seedLine(line model.CartLine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines[line.MenuItemID] = line
	r.order = append(r.order, line.MenuItemID)
}

func (r *fakeCartRepo) counts() (ensure int, upsert int, del int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureCalls, r.upsertCalls, r.deleteCalls
}

// =====================
// Fake: Notifier
// =====================

type recordNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *recordNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordNotifier) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

// =====================
// Fake: AddressRepository
// =====================

type fakeAddressRepo struct {
	addresses []model.Address
}

func (r *fakeAddressRepo) Create(ctx context.Context, address model.Address) (model.Address, error) {
	r.addresses = append(r.addresses, address)
	return address, nil
}

func (r *fakeAddressRepo) ListByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	var out []model.Address
	for _, a := range r.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAddressRepo) FindByID(ctx context.Context, addressID string) (model.Address, error) {
	for _, a := range r.addresses {
		if a.ID == addressID {
			return a, nil
		}
	}
	return model.Address{}, repo.ErrNotFound
}

func (r *fakeAddressRepo) Update(ctx context.Context, address model.Address) error {
	for i := range r.addresses {
		if r.addresses[i].ID == address.ID {
			r.addresses[i] = address
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *fakeAddressRepo) Delete(ctx context.Context, addressID string) error {
	for i := range r.addresses {
		if r.addresses[i].ID == addressID {
			r.addresses = append(r.addresses[:i], r.addresses[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *fakeAddressRepo) SetDefault(ctx context.Context, userID string, addressID string) error {
	found := false
	for i := range r.addresses {
		if r.addresses[i].UserID != userID {
			continue
		}
		r.addresses[i].IsDefault = r.addresses[i].ID == addressID
		if r.addresses[i].ID == addressID {
			found = true
		}
	}
	if !found {
		return repo.ErrNotFound
	}
	return nil
}

// =====================
// Fake: OfferRepository
// =====================

type fakeOfferRepo struct {
	offers     map[string]model.Offer // code -> offer
	increments int
}

func (r *fakeOfferRepo) FindByCode(ctx context.Context, code string) (model.Offer, error) {
	offer, ok := r.offers[code]
	if !ok {
		return model.Offer{}, repo.ErrNotFound
	}
	return offer, nil
}

func (r *fakeOfferRepo) IncrementUsedCount(ctx context.Context, offerID string) error {
	r.increments++
	return nil
}
