package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"rebirth/internal/domain/model"
	repo "rebirth/internal/repository"

	"gorm.io/gorm"
)

type (
	orderRow     = model.Order
	orderItemRow = model.OrderItem
	addressRow   = model.Address
	itemRow      = model.Item
	userRow      = model.User
	auditRow     = model.AuditLog
)

func copyOrder(o model.Order) model.Order {
	if o.UserID != nil {
		id := *o.UserID
		o.UserID = &id
	}
	return o
}

func copyItem(it model.Item) model.Item {
	it.Options.Colors = append([]string(nil), it.Options.Colors...)
	it.Options.Sizes = append([]string(nil), it.Options.Sizes...)
	it.DetailImageURLs = append([]string(nil), it.DetailImageURLs...)
	return it
}

// 新しい順（created_at desc, id desc）
func sortOrdersNewestFirst(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

func page[T any](all []T, page, limit int) []T {
	if page < 1 || limit < 1 {
		return []T{}
	}
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// ---- orders ----

type orderRepo struct{ r *repos }

func (o *orderRepo) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	defer o.r.lock()()
	row, ok := o.r.store.st.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return copyOrder(row), nil
}

func (o *orderRepo) FindByIDs(ctx context.Context, orderIDs []string) ([]model.Order, error) {
	defer o.r.lock()()
	out := make([]model.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if row, ok := o.r.store.st.orders[id]; ok {
			out = append(out, copyOrder(row))
		}
	}
	return out, nil
}

func (o *orderRepo) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	defer o.r.lock()()
	matched := make([]model.Order, 0)
	for _, row := range o.r.store.st.orders {
		if f.Status != nil && row.Status != *f.Status {
			continue
		}
		if f.UserID != nil && (row.UserID == nil || *row.UserID != *f.UserID) {
			continue
		}
		matched = append(matched, copyOrder(row))
	}
	sortOrdersNewestFirst(matched)
	return page(matched, f.Page, f.Limit), int64(len(matched)), nil
}

func (o *orderRepo) Create(ctx context.Context, order model.Order) error {
	defer o.r.lock()()
	if _, exists := o.r.store.st.orders[order.ID]; exists {
		return gorm.ErrDuplicatedKey
	}
	o.r.store.st.orders[order.ID] = copyOrder(order)
	return nil
}

func (o *orderRepo) UpdateIfStatus(ctx context.Context, orderID string, expected model.OrderStatus, ch repo.OrderChanges) error {
	defer o.r.lock()()
	row, ok := o.r.store.st.orders[orderID]
	if !ok || row.Status != expected {
		return repo.ErrStatusConflict
	}
	row.Message = ch.Message
	row.AddressID = ch.AddressID
	row.Status = ch.Status
	row.TotalPrice = ch.TotalPrice
	row.UpdatedAt = time.Now()
	o.r.store.st.orders[orderID] = row
	return nil
}

func (o *orderRepo) UpdateStatuses(ctx context.Context, orderIDs []string, status model.OrderStatus) (int64, error) {
	defer o.r.lock()()
	var n int64
	for _, id := range orderIDs {
		row, ok := o.r.store.st.orders[id]
		if !ok {
			continue
		}
		row.Status = status
		row.UpdatedAt = time.Now()
		o.r.store.st.orders[id] = row
		n++
	}
	return n, nil
}

func (o *orderRepo) DeleteWhereStatusNotIn(ctx context.Context, orderIDs []string, protected []model.OrderStatus) (int64, error) {
	defer o.r.lock()()
	blocked := model.NewStatusSet(protected...)
	var n int64
	for _, id := range orderIDs {
		row, ok := o.r.store.st.orders[id]
		if !ok || blocked.Contains(row.Status) {
			continue
		}
		delete(o.r.store.st.orders, id)
		n++
	}
	return n, nil
}

// ---- order items ----

type orderItemRepo struct{ r *repos }

func (oi *orderItemRepo) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	defer oi.r.lock()()
	st := oi.r.store.st
	for i := range items {
		items[i].ID = st.newID()
		items[i].OrderID = orderID
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = time.Now()
		}
		st.orderItems[items[i].ID] = items[i]
	}
	return nil
}

func (oi *orderItemRepo) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	return oi.ListByOrderIDs(ctx, []string{orderID})
}

func (oi *orderItemRepo) ListByOrderIDs(ctx context.Context, orderIDs []string) ([]model.OrderItem, error) {
	defer oi.r.lock()()
	want := make(map[string]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		want[id] = struct{}{}
	}
	out := make([]model.OrderItem, 0)
	for _, row := range oi.r.store.st.orderItems {
		if _, ok := want[row.OrderID]; ok {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (oi *orderItemRepo) DeleteByOrderIDs(ctx context.Context, orderIDs []string) error {
	defer oi.r.lock()()
	want := make(map[string]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		want[id] = struct{}{}
	}
	for id, row := range oi.r.store.st.orderItems {
		if _, ok := want[row.OrderID]; ok {
			delete(oi.r.store.st.orderItems, id)
		}
	}
	return nil
}

// ---- addresses ----

type addressRepo struct{ r *repos }

func (a *addressRepo) Create(ctx context.Context, address model.Address) (model.Address, error) {
	defer a.r.lock()()
	address.ID = a.r.store.st.newID()
	a.r.store.st.addresses[address.ID] = address
	return address, nil
}

func (a *addressRepo) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	defer a.r.lock()()
	row, ok := a.r.store.st.addresses[addressID]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return row, nil
}

func (a *addressRepo) FindByIDs(ctx context.Context, addressIDs []int64) ([]model.Address, error) {
	defer a.r.lock()()
	out := make([]model.Address, 0, len(addressIDs))
	for _, id := range addressIDs {
		if row, ok := a.r.store.st.addresses[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (a *addressRepo) Update(ctx context.Context, address model.Address) error {
	defer a.r.lock()()
	row, ok := a.r.store.st.addresses[address.ID]
	if !ok {
		return repo.ErrNotFound
	}
	address.CreatedAt = row.CreatedAt
	a.r.store.st.addresses[address.ID] = address
	return nil
}

func (a *addressRepo) DeleteByIDs(ctx context.Context, addressIDs []int64) error {
	defer a.r.lock()()
	for _, id := range addressIDs {
		delete(a.r.store.st.addresses, id)
	}
	return nil
}

// ---- items ----

type itemRepo struct{ r *repos }

func (i *itemRepo) live() []model.Item {
	out := make([]model.Item, 0, len(i.r.store.st.items))
	for _, row := range i.r.store.st.items {
		if row.DeletedAt.Valid {
			continue
		}
		out = append(out, copyItem(row))
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID > out[b].ID
	})
	return out
}

func (i *itemRepo) ListAll(ctx context.Context) ([]model.Item, error) {
	defer i.r.lock()()
	return i.live(), nil
}

func (i *itemRepo) List(ctx context.Context, q repo.ItemListQuery) ([]model.Item, int64, error) {
	defer i.r.lock()()
	category := strings.TrimSpace(q.Category)
	matched := make([]model.Item, 0)
	for _, it := range i.live() {
		if category != "" && it.Category != category {
			continue
		}
		matched = append(matched, it)
	}
	return page(matched, q.Page, q.Limit), int64(len(matched)), nil
}

func (i *itemRepo) FindByID(ctx context.Context, id int64) (model.Item, error) {
	defer i.r.lock()()
	row, ok := i.r.store.st.items[id]
	if !ok || row.DeletedAt.Valid {
		return model.Item{}, repo.ErrNotFound
	}
	return copyItem(row), nil
}

func (i *itemRepo) FindByIDsUnscoped(ctx context.Context, ids []int64) ([]model.Item, error) {
	defer i.r.lock()()
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		if row, ok := i.r.store.st.items[id]; ok {
			out = append(out, copyItem(row))
		}
	}
	return out, nil
}

func (i *itemRepo) Create(ctx context.Context, it model.Item) (model.Item, error) {
	defer i.r.lock()()
	it.ID = i.r.store.st.newID()
	now := time.Now()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now
	i.r.store.st.items[it.ID] = copyItem(it)
	return it, nil
}

func (i *itemRepo) Update(ctx context.Context, it model.Item) error {
	defer i.r.lock()()
	row, ok := i.r.store.st.items[it.ID]
	if !ok || row.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	row.Category = it.Category
	row.Name = it.Name
	row.Price = it.Price
	row.Options = it.Options
	row.Content = it.Content
	row.ImageURL = it.ImageURL
	row.DetailImageURLs = it.DetailImageURLs
	row.UpdatedAt = time.Now()
	i.r.store.st.items[it.ID] = copyItem(row)
	return nil
}

func (i *itemRepo) SoftDeleteMany(ctx context.Context, ids []int64) (int64, error) {
	defer i.r.lock()()
	var n int64
	for _, id := range ids {
		row, ok := i.r.store.st.items[id]
		if !ok || row.DeletedAt.Valid {
			continue
		}
		row.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		i.r.store.st.items[id] = row
		n++
	}
	return n, nil
}

// ---- users ----

type userRepo struct{ r *repos }

func (u *userRepo) Create(ctx context.Context, user *model.User) error {
	defer u.r.lock()()
	for _, row := range u.r.store.st.users {
		if strings.EqualFold(row.Email, user.Email) {
			return repo.ErrEmailTaken
		}
	}
	user.ID = u.r.store.st.newID()
	u.r.store.st.users[user.ID] = *user
	return nil
}

func (u *userRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	defer u.r.lock()()
	row, ok := u.r.store.st.users[userID]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return &row, nil
}

func (u *userRepo) FindByIDs(ctx context.Context, userIDs []int64) ([]model.User, error) {
	defer u.r.lock()()
	out := make([]model.User, 0, len(userIDs))
	for _, id := range userIDs {
		if row, ok := u.r.store.st.users[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (u *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	defer u.r.lock()()
	for _, row := range u.r.store.st.users {
		if strings.EqualFold(row.Email, email) {
			found := row
			return &found, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (u *userRepo) Update(ctx context.Context, user *model.User) error {
	defer u.r.lock()()
	if _, ok := u.r.store.st.users[user.ID]; !ok {
		return repo.ErrUserNotFound
	}
	u.r.store.st.users[user.ID] = *user
	return nil
}

// ---- audit logs ----

type auditRepo struct{ r *repos }

func (a *auditRepo) Create(ctx context.Context, log model.AuditLog) error {
	defer a.r.lock()()
	log.ID = a.r.store.st.newID()
	a.r.store.st.auditLogs = append(a.r.store.st.auditLogs, log)
	return nil
}

func (a *auditRepo) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	defer a.r.lock()()
	matched := make([]model.AuditLog, 0)
	for idx := len(a.r.store.st.auditLogs) - 1; idx >= 0; idx-- {
		l := a.r.store.st.auditLogs[idx]
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != "" && l.ResourceID != f.ResourceID {
			continue
		}
		matched = append(matched, l)
	}
	return page(matched, f.Page, f.Limit), int64(len(matched)), nil
}
