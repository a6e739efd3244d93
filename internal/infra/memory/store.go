package memory

import (
	"context"
	"sync"

	repo "rebirth/internal/repository"
)

type state struct {
	orders     map[string]orderRow
	orderItems map[int64]orderItemRow
	addresses  map[int64]addressRow
	items      map[int64]itemRow
	users      map[int64]userRow
	auditLogs  []auditRow
	nextID     int64
}

func newState() *state {
	return &state{
		orders:     map[string]orderRow{},
		orderItems: map[int64]orderItemRow{},
		addresses:  map[int64]addressRow{},
		items:      map[int64]itemRow{},
		users:      map[int64]userRow{},
	}
}

// rollback用のコピー。行は値で持っているのでmapだけ複製すればよい。
func (s *state) clone() *state {
	c := &state{
		orders:     make(map[string]orderRow, len(s.orders)),
		orderItems: make(map[int64]orderItemRow, len(s.orderItems)),
		addresses:  make(map[int64]addressRow, len(s.addresses)),
		items:      make(map[int64]itemRow, len(s.items)),
		users:      make(map[int64]userRow, len(s.users)),
		auditLogs:  append([]auditRow(nil), s.auditLogs...),
		nextID:     s.nextID,
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = v
	}
	for k, v := range s.addresses {
		c.addresses[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

func (s *state) newID() int64 {
	s.nextID++
	return s.nextID
}

// Store はプロセス内だけで完結するストア。開発用とテスト用。
// トランザクションはストア全体のロックで直列化する。
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// トランザクション外で使うrepo群（呼び出しごとにロック）
func (s *Store) Repos() repo.TxRepos {
	return &repos{store: s, inTx: false}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&repos{store: s, inTx: true}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

type repos struct {
	store *Store
	inTx  bool
}

func (r *repos) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *repos) Orders() repo.OrderRepository         { return &orderRepo{r} }
func (r *repos) OrderItems() repo.OrderItemRepository { return &orderItemRepo{r} }
func (r *repos) Addresses() repo.AddressRepository    { return &addressRepo{r} }
func (r *repos) Items() repo.ItemRepository           { return &itemRepo{r} }
func (r *repos) Users() repo.UserRepository           { return &userRepo{r} }
func (r *repos) AuditLogs() repo.AuditLogRepository   { return &auditRepo{r} }
