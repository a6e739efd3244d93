package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"rebirth/internal/domain/model"
	repo "rebirth/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// 注文完了の通知先（Kafka / RabbitMQ / ログ）
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, ev model.OrderPlacedEvent) error
}

// 注文数などのカウンタ。nilなら何もしない。
type OrderMetrics interface {
	OrderPlaced(guest bool)
	NotifyResult(ok bool)
}

const notifyTimeout = 5 * time.Second

type OrderUsecase struct {
	tx       repo.TransactionManager
	guard    *ShippingGuard
	notifier OrderNotifier
	metrics  OrderMetrics
	logger   logrus.FieldLogger

	now   func() time.Time
	newID func() string
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	guard *ShippingGuard,
	notifier OrderNotifier,
	logger logrus.FieldLogger,
) *OrderUsecase {
	if guard == nil {
		guard = NewShippingGuard(nil)
	}
	return &OrderUsecase{
		tx:       tx,
		guard:    guard,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (u *OrderUsecase) WithMetrics(m OrderMetrics) *OrderUsecase {
	u.metrics = m
	return u
}

// 注文明細の入力（商品ID・オプション・数量）
type OrderItemInput struct {
	ItemID   int64
	Option   model.ItemOption
	Quantity int64
}

type AddressInput struct {
	Addressee  string
	PostalCode string
	Address1   string
	Address2   string
	Phone      string
}

// 住所の部分更新。nilの項目はそのまま。
type AddressPatch struct {
	Addressee  *string
	PostalCode *string
	Address1   *string
	Address2   *string
	Phone      *string
}

// UserIDがnilなら非会員注文（GuestEmail必須）
type PlaceOrderInput struct {
	UserID     *int64
	GuestEmail string
	Items      []OrderItemInput
	Address    AddressInput
	TotalPrice int64
	Status     string
	Message    string
}

// 指定された項目だけ更新する。Itemsはnilなら据え置き。
type UpdateOrderInput struct {
	Message    *string
	Address    *AddressPatch
	Status     *string
	Items      []OrderItemInput
	TotalPrice *int64
}

type OrderPage struct {
	Orders      []OrderOutput `json:"orders"`
	Count       int64         `json:"count"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

func (u *OrderUsecase) PlaceOrder(ctx context.Context, in PlaceOrderInput) (OrderOutput, error) {
	status, err := initialStatus(in.Status)
	if err != nil {
		return OrderOutput{}, err
	}
	if in.TotalPrice < 0 {
		return OrderOutput{}, BadRequest("invalid total price")
	}
	addr, err := newAddress(in.Address)
	if err != nil {
		return OrderOutput{}, err
	}

	guest := in.UserID == nil
	guestEmail := strings.TrimSpace(in.GuestEmail)
	if guest {
		if _, err := mail.ParseAddress(guestEmail); err != nil || guestEmail == "" {
			return OrderOutput{}, BadRequest("invalid email")
		}
	}

	var (
		order     model.Order
		recipient string
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if guest {
			recipient = guestEmail
		} else {
			user, err := r.Users().FindByID(ctx, *in.UserID)
			if errors.Is(err, repo.ErrUserNotFound) {
				return NotFound("user not found")
			}
			if err != nil {
				return u.dbError(err, "find user")
			}
			recipient = user.Email
		}

		//明細を商品マスタと突き合わせる
		items, sum, err := u.buildOrderItems(ctx, r, in.Items)
		if err != nil {
			return err
		}
		if sum != in.TotalPrice {
			return BadRequest(msgTotalMismatch)
		}

		created, err := r.Addresses().Create(ctx, addr)
		if err != nil {
			return u.dbError(err, "create address")
		}

		now := u.now()
		order = model.Order{
			ID:         u.newID(),
			UserID:     in.UserID,
			AddressID:  created.ID,
			Status:     status,
			TotalPrice: in.TotalPrice,
			Message:    in.Message,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if guest {
			order.GuestEmail = guestEmail
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			return u.dbError(err, "create order")
		}
		if err := r.OrderItems().CreateBulk(ctx, order.ID, items); err != nil {
			return u.dbError(err, "create order items")
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if u.metrics != nil {
		u.metrics.OrderPlaced(guest)
	}
	//コミット済みなので通知の失敗は注文を失敗にしない
	u.notifyPlaced(ctx, model.OrderPlacedEvent{
		Event:      model.EventOrderPlaced,
		OrderID:    order.ID,
		Recipient:  recipient,
		Guest:      guest,
		TotalPrice: order.TotalPrice,
		OccurredAt: order.CreatedAt.UTC(),
	})

	return u.loadOrder(ctx, order.ID)
}

// 全注文（管理者）
func (u *OrderUsecase) ListOrders(ctx context.Context, page, limit int) (OrderPage, error) {
	return u.list(ctx, repo.OrderListFilter{Page: page, Limit: limit})
}

// userIDがnil（管理者）ならステータスだけで絞る
func (u *OrderUsecase) ListOrdersByStatus(ctx context.Context, userID *int64, status string, page, limit int) (OrderPage, error) {
	s := model.OrderStatus(strings.TrimSpace(status))
	if !s.IsKnown() {
		return OrderPage{}, BadRequest(msgInvalidStatus)
	}
	return u.list(ctx, repo.OrderListFilter{Page: page, Limit: limit, Status: &s, UserID: userID})
}

func (u *OrderUsecase) ListOrdersByUser(ctx context.Context, userID int64, page, limit int) (OrderPage, error) {
	if userID <= 0 {
		return OrderPage{}, Unauthorized("unauthorized")
	}
	return u.list(ctx, repo.OrderListFilter{Page: page, Limit: limit, UserID: &userID})
}

func (u *OrderUsecase) list(ctx context.Context, f repo.OrderListFilter) (OrderPage, error) {
	if f.Page < 1 {
		return OrderPage{}, BadRequest(msgInvalidPage)
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderPage{}, BadRequest(msgInvalidLimit)
	}

	var out OrderPage
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, count, err := r.Orders().List(ctx, f)
		if err != nil {
			return u.dbError(err, "list orders")
		}
		assembled, err := assembleOrders(ctx, r, orders)
		if err != nil {
			return u.dbError(err, "assemble orders")
		}
		out = OrderPage{
			Orders:      assembled,
			Count:       count,
			TotalPages:  totalPages(count, f.Limit),
			CurrentPage: f.Page,
		}
		return nil
	})
	if err != nil {
		return OrderPage{}, err
	}
	return out, nil
}

// 注文者本人か管理者だけが見られる
func (u *OrderUsecase) GetOrder(ctx context.Context, requester Requester, orderID string) (OrderOutput, error) {
	out, err := u.loadOrder(ctx, orderID)
	if err != nil {
		return OrderOutput{}, err
	}
	if !canAccess(requester, out.User) {
		return OrderOutput{}, Unauthorized(msgOrderForbidden)
	}
	return out, nil
}

// 非会員は注文番号だけで照会できる
func (u *OrderUsecase) GetGuestOrder(ctx context.Context, orderID string) (OrderOutput, error) {
	return u.loadOrder(ctx, orderID)
}

func (u *OrderUsecase) UpdateOrder(ctx context.Context, requester Requester, orderID string, in UpdateOrderInput) (OrderOutput, error) {
	if !isOrderID(orderID) {
		return OrderOutput{}, NotFound(msgOrderNotFound)
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound(msgOrderNotFound)
		}
		if err != nil {
			return u.dbError(err, "find order")
		}
		if err := u.authorize(ctx, r, requester, order); err != nil {
			return err
		}

		//今のステータスで判定
		if err := u.guard.Check(order.Status); err != nil {
			return err
		}

		changes := repo.OrderChanges{
			Message:    order.Message,
			AddressID:  order.AddressID,
			Status:     order.Status,
			TotalPrice: order.TotalPrice,
		}
		if in.Message != nil {
			changes.Message = *in.Message
		}
		if in.Status != nil {
			s := model.OrderStatus(strings.TrimSpace(*in.Status))
			if !s.IsKnown() {
				return BadRequest(msgInvalidStatus)
			}
			changes.Status = s
		}

		switch {
		case in.Items != nil:
			items, sum, err := u.buildOrderItems(ctx, r, in.Items)
			if err != nil {
				return err
			}
			if in.TotalPrice != nil && *in.TotalPrice != sum {
				return BadRequest(msgTotalMismatch)
			}
			changes.TotalPrice = sum
			if err := r.OrderItems().DeleteByOrderIDs(ctx, []string{orderID}); err != nil {
				return u.dbError(err, "delete order items")
			}
			if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
				return u.dbError(err, "create order items")
			}
		case in.TotalPrice != nil:
			sum, err := u.currentSum(ctx, r, orderID)
			if err != nil {
				return err
			}
			if *in.TotalPrice != sum {
				return BadRequest(msgTotalMismatch)
			}
			changes.TotalPrice = sum
		}

		if in.Address != nil {
			addr, err := r.Addresses().FindByID(ctx, order.AddressID)
			if errors.Is(err, repo.ErrNotFound) {
				return NotFound(msgAddressNotFound)
			}
			if err != nil {
				return u.dbError(err, "find address")
			}
			addr = applyAddressPatch(addr, *in.Address)
			if err := validateAddress(addr); err != nil {
				return err
			}
			addr.UpdatedAt = u.now()
			if err := r.Addresses().Update(ctx, addr); err != nil {
				return u.dbError(err, "update address")
			}
		}

		//読んだ時点のステータスのままなら書く
		err = r.Orders().UpdateIfStatus(ctx, orderID, order.Status, changes)
		if errors.Is(err, repo.ErrStatusConflict) {
			return Conflict(msgStatusConflict)
		}
		if err != nil {
			return u.dbError(err, "update order")
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	return u.loadOrder(ctx, orderID)
}

// 配送ダッシュボードからの一括変更。ガードはかけない。
func (u *OrderUsecase) UpdateStatuses(ctx context.Context, actor Requester, orderIDs []string, status string) ([]OrderOutput, error) {
	ids := normalizeIDs(orderIDs)
	if len(ids) == 0 {
		return nil, BadRequest(msgOrderIDsRequired)
	}
	next := model.OrderStatus(strings.TrimSpace(status))
	if !next.IsKnown() {
		return nil, BadRequest(msgInvalidStatus)
	}

	var outs []OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := u.findAll(ctx, r, ids)
		if err != nil {
			return err
		}

		if _, err := r.Orders().UpdateStatuses(ctx, ids, next); err != nil {
			return u.dbError(err, "update statuses")
		}

		//監査ログ（変わった注文だけ）
		now := u.now()
		for _, o := range orders {
			if o.Status == next {
				continue
			}
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actor.UserID,
				Action:       model.AuditActionUpdateOrderStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   o.ID,
				BeforeJSON:   statusJSON(o.Status),
				AfterJSON:    statusJSON(next),
				CreatedAt:    now,
			}); err != nil {
				return u.dbError(err, "create audit log")
			}
		}

		updated, err := r.Orders().FindByIDs(ctx, ids)
		if err != nil {
			return u.dbError(err, "find orders")
		}
		outs, err = assembleOrders(ctx, r, sortByIDs(updated, ids))
		if err != nil {
			return u.dbError(err, "assemble orders")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outs, nil
}

// 全件削除できるときだけ削除する（1件でも保護ステータスなら何も消さない）
func (u *OrderUsecase) DeleteOrders(ctx context.Context, requester Requester, orderIDs []string) error {
	ids := normalizeIDs(orderIDs)
	if len(ids) == 0 {
		return BadRequest(msgOrderIDsRequired)
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := u.findAll(ctx, r, ids)
		if err != nil {
			return err
		}

		blocked := make([]string, 0)
		addressIDs := make([]int64, 0, len(orders))
		for _, o := range orders {
			if err := u.authorize(ctx, r, requester, o); err != nil {
				return err
			}
			if u.guard.IsProtected(o.Status) {
				blocked = append(blocked, o.ID)
			}
			addressIDs = append(addressIDs, o.AddressID)
		}
		if len(blocked) > 0 {
			return BadRequest(fmt.Sprintf("%s (%s)", msgShippingLocked, strings.Join(blocked, ", ")))
		}

		n, err := r.Orders().DeleteWhereStatusNotIn(ctx, ids, u.guard.Protected())
		if err != nil {
			return u.dbError(err, "delete orders")
		}
		if n != int64(len(ids)) {
			return Conflict(msgStatusConflict)
		}
		if err := r.OrderItems().DeleteByOrderIDs(ctx, ids); err != nil {
			return u.dbError(err, "delete order items")
		}
		if err := r.Addresses().DeleteByIDs(ctx, uniqueInt64(addressIDs)); err != nil {
			return u.dbError(err, "delete addresses")
		}
		return nil
	})
}

func (u *OrderUsecase) loadOrder(ctx context.Context, orderID string) (OrderOutput, error) {
	if !isOrderID(orderID) {
		return OrderOutput{}, NotFound(msgOrderNotFound)
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NotFound(msgOrderNotFound)
		}
		if err != nil {
			return u.dbError(err, "find order")
		}
		outs, err := assembleOrders(ctx, r, []model.Order{order})
		if err != nil {
			return u.dbError(err, "assemble order")
		}
		out = outs[0]
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 全IDが存在すること。足りなければそのIDを並べて404。
func (u *OrderUsecase) findAll(ctx context.Context, r repo.TxRepos, ids []string) ([]model.Order, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isOrderID(id) {
			valid = append(valid, id)
		}
	}
	orders, err := r.Orders().FindByIDs(ctx, valid)
	if err != nil {
		return nil, u.dbError(err, "find orders")
	}
	if len(orders) != len(ids) {
		found := make(map[string]struct{}, len(orders))
		for _, o := range orders {
			found[o.ID] = struct{}{}
		}
		missing := make([]string, 0)
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, NotFound(fmt.Sprintf("%s (%s)", msgOrderNotFound, strings.Join(missing, ", ")))
	}
	return sortByIDs(orders, ids), nil
}

// 管理者以外は自分の注文だけ
func (u *OrderUsecase) authorize(ctx context.Context, r repo.TxRepos, requester Requester, order model.Order) error {
	if requester.IsAdmin() {
		return nil
	}
	if order.UserID == nil {
		return Unauthorized(msgOrderForbidden)
	}
	owner, err := r.Users().FindByID(ctx, *order.UserID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return Unauthorized(msgOrderForbidden)
	}
	if err != nil {
		return u.dbError(err, "find user")
	}
	if !canAccess(requester, &OrderUserOutput{ID: owner.ID, Email: owner.Email}) {
		return Unauthorized(msgOrderForbidden)
	}
	return nil
}

func canAccess(requester Requester, owner *OrderUserOutput) bool {
	if requester.IsAdmin() {
		return true
	}
	return owner != nil && requester.Email != "" && strings.EqualFold(owner.Email, requester.Email)
}

// 入力順に明細を作り、合計（price×数量）を返す
func (u *OrderUsecase) buildOrderItems(ctx context.Context, r repo.TxRepos, in []OrderItemInput) ([]model.OrderItem, int64, error) {
	if len(in) == 0 {
		return nil, 0, BadRequest("order items required")
	}

	items := make([]model.OrderItem, 0, len(in))
	var sum int64
	now := u.now()
	for _, raw := range in {
		if raw.ItemID <= 0 {
			return nil, 0, BadRequest("invalid item_id")
		}
		if raw.Quantity <= 0 {
			return nil, 0, BadRequest("invalid quantity")
		}
		item, err := r.Items().FindByID(ctx, raw.ItemID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, NotFound(msgItemNotFound)
		}
		if err != nil {
			return nil, 0, u.dbError(err, "find item")
		}
		opt := model.ItemOption{
			Color: strings.TrimSpace(raw.Option.Color),
			Size:  strings.TrimSpace(raw.Option.Size),
		}
		if !item.Options.Allows(opt) {
			return nil, 0, BadRequest("invalid option")
		}

		items = append(items, model.OrderItem{
			ItemID:            item.ID,
			ItemNameSnapshot:  item.Name,
			UnitPriceSnapshot: item.Price,
			Option:            opt,
			Quantity:          raw.Quantity,
			CreatedAt:         now,
		})
		sum += item.Price * raw.Quantity
	}
	return items, sum, nil
}

// 保存済みの明細（注文時点の単価）から合計を出し直す
func (u *OrderUsecase) currentSum(ctx context.Context, r repo.TxRepos, orderID string) (int64, error) {
	lines, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return 0, u.dbError(err, "list order items")
	}
	var sum int64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum, nil
}

func (u *OrderUsecase) notifyPlaced(ctx context.Context, ev model.OrderPlacedEvent) {
	if u.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err := u.notifier.OrderPlaced(nctx, ev)
	if u.metrics != nil {
		u.metrics.NotifyResult(err == nil)
	}
	if err != nil {
		u.logger.WithError(err).WithFields(logrus.Fields{
			"order_id": ev.OrderID,
			"guest":    ev.Guest,
		}).Warn("order notification failed")
	}
}

// 想定外のストアエラーはログに残して500
func (u *OrderUsecase) dbError(err error, op string) error {
	u.logger.WithError(err).WithField("op", op).Error("order store error")
	return Internal(msgDBError)
}

func initialStatus(raw string) (model.OrderStatus, error) {
	s := model.OrderStatus(strings.TrimSpace(raw))
	if s == "" {
		return model.OrderStatusPaid, nil
	}
	if !s.IsKnown() {
		return "", BadRequest(msgInvalidStatus)
	}
	return s, nil
}

func newAddress(in AddressInput) (model.Address, error) {
	addr := model.Address{
		Addressee:  strings.TrimSpace(in.Addressee),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Address1:   strings.TrimSpace(in.Address1),
		Address2:   strings.TrimSpace(in.Address2),
		Phone:      strings.TrimSpace(in.Phone),
	}
	if err := validateAddress(addr); err != nil {
		return model.Address{}, err
	}
	now := time.Now()
	addr.CreatedAt = now
	addr.UpdatedAt = now
	return addr, nil
}

func validateAddress(a model.Address) error {
	if a.Addressee == "" || a.PostalCode == "" || a.Address1 == "" {
		return BadRequest("invalid address")
	}
	return nil
}

func applyAddressPatch(a model.Address, p AddressPatch) model.Address {
	if p.Addressee != nil {
		a.Addressee = strings.TrimSpace(*p.Addressee)
	}
	if p.PostalCode != nil {
		a.PostalCode = strings.TrimSpace(*p.PostalCode)
	}
	if p.Address1 != nil {
		a.Address1 = strings.TrimSpace(*p.Address1)
	}
	if p.Address2 != nil {
		a.Address2 = strings.TrimSpace(*p.Address2)
	}
	if p.Phone != nil {
		a.Phone = strings.TrimSpace(*p.Phone)
	}
	return a
}

// 空白を除いて重複を消す（順序は最初の出現順）
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sortByIDs(orders []model.Order, ids []string) []model.Order {
	byID := make(map[string]model.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	out := make([]model.Order, 0, len(orders))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// uuid形式でないIDはDBに問い合わせずに404
func isOrderID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func statusJSON(s model.OrderStatus) string {
	b, _ := json.Marshal(map[string]string{"status": string(s)})
	return string(b)
}

func totalPages(count int64, limit int) int {
	if limit <= 0 || count <= 0 {
		return 0
	}
	return int((count + int64(limit) - 1) / int64(limit))
}
