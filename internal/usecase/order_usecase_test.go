package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"rebirth/internal/domain/model"
	"rebirth/internal/infra/memory"
	"rebirth/internal/logging"
	repo "rebirth/internal/repository"
	"rebirth/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// モック
// =====================

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderPlaced(ctx context.Context, ev model.OrderPlacedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type MockOrderMetrics struct {
	mock.Mock
}

func (m *MockOrderMetrics) OrderPlaced(guest bool) {
	m.Called(guest)
}

func (m *MockOrderMetrics) NotifyResult(ok bool) {
	m.Called(ok)
}

var (
	_ usecase.OrderNotifier = (*MockNotifier)(nil)
	_ usecase.OrderMetrics  = (*MockOrderMetrics)(nil)
)

// =====================
// fixture
// =====================

type orderFixture struct {
	ctx      context.Context
	store    *memory.Store
	uc       *usecase.OrderUsecase
	notifier *MockNotifier

	shirt model.Item
	hat   model.Item
	buyer *model.User
	other *model.User
	admin usecase.Requester
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	ctx := context.Background()
	st := memory.NewStore()
	r := st.Repos()

	shirt, err := r.Items().Create(ctx, model.Item{
		Category: "top",
		Name:     "셔츠",
		Price:    10000,
		Options:  model.ItemOptions{Colors: []string{"black", "white"}, Sizes: []string{"M", "L"}},
		ImageURL: "/assets/items/a.png",
	})
	require.NoError(t, err)
	hat, err := r.Items().Create(ctx, model.Item{Category: "acc", Name: "모자", Price: 5000, ImageURL: "/assets/items/b.png"})
	require.NoError(t, err)

	buyer := &model.User{Email: "buyer@example.com", Role: model.RoleUser, IsActive: true}
	require.NoError(t, r.Users().Create(ctx, buyer))
	other := &model.User{Email: "other@example.com", Role: model.RoleUser, IsActive: true}
	require.NoError(t, r.Users().Create(ctx, other))

	n := new(MockNotifier)
	n.On("OrderPlaced", mock.Anything, mock.Anything).Return(nil).Maybe()

	return &orderFixture{
		ctx:      ctx,
		store:    st,
		uc:       usecase.NewOrderUsecase(st, nil, n, logging.Discard()),
		notifier: n,
		shirt:    shirt,
		hat:      hat,
		buyer:    buyer,
		other:    other,
		admin:    usecase.Requester{UserID: 999, Email: "admin@example.com", Role: model.RoleAdmin},
	}
}

func (f *orderFixture) requester(u *model.User) usecase.Requester {
	return usecase.Requester{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func validAddress() usecase.AddressInput {
	return usecase.AddressInput{Addressee: "홍길동", PostalCode: "12345", Address1: "서울시", Address2: "101호", Phone: "010-0000-0000"}
}

// shirt(black/M)×2 + hat×1 = 25000
func (f *orderFixture) memberOrder(t *testing.T, status string) usecase.OrderOutput {
	t.Helper()
	uid := f.buyer.ID
	out, err := f.uc.PlaceOrder(f.ctx, usecase.PlaceOrderInput{
		UserID: &uid,
		Items: []usecase.OrderItemInput{
			{ItemID: f.shirt.ID, Option: model.ItemOption{Color: "black", Size: "M"}, Quantity: 2},
			{ItemID: f.hat.ID, Quantity: 1},
		},
		Address:    validAddress(),
		TotalPrice: 25000,
		Status:     status,
	})
	require.NoError(t, err)
	return out
}

func requireHTTPError(t *testing.T, err error, status int) *usecase.HTTPError {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, status, he.Status)
	return he
}

func ptr[T any](v T) *T { return &v }

// =====================
// PlaceOrder
// =====================

func TestPlaceOrder_Member(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	_, err := uuid.Parse(out.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, out.Status)
	assert.Equal(t, int64(25000), out.TotalPrice)
	require.NotNil(t, out.User)
	assert.Equal(t, f.buyer.Email, out.User.Email)
	assert.Equal(t, "홍길동", out.Address.Addressee)
	require.Len(t, out.OrderItems, 2)
	assert.Equal(t, "셔츠", out.OrderItems[0].Item.Name)
	assert.Equal(t, int64(20000), out.OrderItems[0].Subtotal)

	f.notifier.AssertCalled(t, "OrderPlaced", mock.Anything, mock.MatchedBy(func(ev model.OrderPlacedEvent) bool {
		return ev.OrderID == out.ID && ev.Recipient == "buyer@example.com" && !ev.Guest && ev.Event == model.EventOrderPlaced
	}))
}

func TestPlaceOrder_Guest(t *testing.T) {
	f := newOrderFixture(t)

	out, err := f.uc.PlaceOrder(f.ctx, usecase.PlaceOrderInput{
		GuestEmail: "guest@example.com",
		Items:      []usecase.OrderItemInput{{ItemID: f.hat.ID, Quantity: 3}},
		Address:    validAddress(),
		TotalPrice: 15000,
	})
	require.NoError(t, err)
	assert.Nil(t, out.User)

	got, err := f.uc.GetGuestOrder(f.ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, got.ID)

	f.notifier.AssertCalled(t, "OrderPlaced", mock.Anything, mock.MatchedBy(func(ev model.OrderPlacedEvent) bool {
		return ev.Guest && ev.Recipient == "guest@example.com"
	}))
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newOrderFixture(t)
	uid := f.buyer.ID

	cases := []struct {
		name   string
		in     usecase.PlaceOrderInput
		status int
		msg    string
	}{
		{
			name:   "guest without email",
			in:     usecase.PlaceOrderInput{Items: []usecase.OrderItemInput{{ItemID: f.hat.ID, Quantity: 1}}, Address: validAddress(), TotalPrice: 5000},
			status: http.StatusBadRequest, msg: "invalid email",
		},
		{
			name:   "no items",
			in:     usecase.PlaceOrderInput{UserID: &uid, Address: validAddress()},
			status: http.StatusBadRequest, msg: "order items required",
		},
		{
			name:   "total mismatch",
			in:     usecase.PlaceOrderInput{UserID: &uid, Items: []usecase.OrderItemInput{{ItemID: f.hat.ID, Quantity: 1}}, Address: validAddress(), TotalPrice: 4000},
			status: http.StatusBadRequest, msg: "total price mismatch",
		},
		{
			name:   "unknown item",
			in:     usecase.PlaceOrderInput{UserID: &uid, Items: []usecase.OrderItemInput{{ItemID: 9999, Quantity: 1}}, Address: validAddress(), TotalPrice: 0},
			status: http.StatusNotFound, msg: "해당 아이템을 찾을 수 없습니다.",
		},
		{
			name: "option not offered",
			in: usecase.PlaceOrderInput{UserID: &uid, Items: []usecase.OrderItemInput{
				{ItemID: f.shirt.ID, Option: model.ItemOption{Color: "red", Size: "M"}, Quantity: 1},
			}, Address: validAddress(), TotalPrice: 10000},
			status: http.StatusBadRequest, msg: "invalid option",
		},
		{
			name:   "missing address",
			in:     usecase.PlaceOrderInput{UserID: &uid, Items: []usecase.OrderItemInput{{ItemID: f.hat.ID, Quantity: 1}}, TotalPrice: 5000},
			status: http.StatusBadRequest, msg: "invalid address",
		},
		{
			name:   "unknown status",
			in:     usecase.PlaceOrderInput{UserID: &uid, Items: []usecase.OrderItemInput{{ItemID: f.hat.ID, Quantity: 1}}, Address: validAddress(), TotalPrice: 5000, Status: "??"},
			status: http.StatusBadRequest, msg: "invalid status",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.PlaceOrder(f.ctx, tc.in)
			he := requireHTTPError(t, err, tc.status)
			assert.Equal(t, tc.msg, he.Message)
		})
	}

	//何も残っていない
	_, total, err := f.store.Repos().Orders().List(f.ctx, repo.OrderListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPlaceOrder_NotifyFailureDoesNotFailOrder(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	hat, err := st.Repos().Items().Create(ctx, model.Item{Name: "모자", Price: 5000})
	require.NoError(t, err)

	n := new(MockNotifier)
	n.On("OrderPlaced", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	m := new(MockOrderMetrics)
	m.On("OrderPlaced", true).Once()
	m.On("NotifyResult", false).Once()

	uc := usecase.NewOrderUsecase(st, nil, n, logging.Discard()).WithMetrics(m)
	out, err := uc.PlaceOrder(ctx, usecase.PlaceOrderInput{
		GuestEmail: "g@example.com",
		Items:      []usecase.OrderItemInput{{ItemID: hat.ID, Quantity: 1}},
		Address:    validAddress(),
		TotalPrice: 5000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	n.AssertExpectations(t)
	m.AssertExpectations(t)
}

// =====================
// 参照
// =====================

func TestGetOrder_Access(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	_, err := f.uc.GetOrder(f.ctx, f.requester(f.buyer), out.ID)
	assert.NoError(t, err)

	_, err = f.uc.GetOrder(f.ctx, f.admin, out.ID)
	assert.NoError(t, err)

	_, err = f.uc.GetOrder(f.ctx, f.requester(f.other), out.ID)
	he := requireHTTPError(t, err, http.StatusUnauthorized)
	assert.Equal(t, "주문 정보를 조회할 권한이 없습니다.", he.Message)

	_, err = f.uc.GetOrder(f.ctx, f.admin, "not-a-uuid")
	requireHTTPError(t, err, http.StatusNotFound)

	_, err = f.uc.GetGuestOrder(f.ctx, uuid.NewString())
	requireHTTPError(t, err, http.StatusNotFound)
}

func TestListOrders_Pagination(t *testing.T) {
	f := newOrderFixture(t)
	for i := 0; i < 3; i++ {
		f.memberOrder(t, "")
	}
	f.memberOrder(t, string(model.OrderStatusShipping))

	page, err := f.uc.ListOrders(f.ctx, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Count)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, page.Orders, 1)

	_, err = f.uc.ListOrders(f.ctx, 0, 3)
	requireHTTPError(t, err, http.StatusBadRequest)
	_, err = f.uc.ListOrders(f.ctx, 1, 0)
	requireHTTPError(t, err, http.StatusBadRequest)

	shipping, err := f.uc.ListOrdersByStatus(f.ctx, nil, "배송중", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), shipping.Count)

	otherID := f.other.ID
	none, err := f.uc.ListOrdersByStatus(f.ctx, &otherID, "배송중", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, none.Count)
	assert.Empty(t, none.Orders)

	mine, err := f.uc.ListOrdersByUser(f.ctx, f.buyer.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), mine.Count)

	_, err = f.uc.ListOrdersByStatus(f.ctx, nil, "unknown", 1, 10)
	requireHTTPError(t, err, http.StatusBadRequest)
}

// =====================
// UpdateOrder
// =====================

func TestUpdateOrder_PartialKeepsOtherFields(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	updated, err := f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{
		Message: ptr("문 앞에 놓아주세요"),
		Address: &usecase.AddressPatch{Address2: ptr("202호")},
	})
	require.NoError(t, err)
	assert.Equal(t, "문 앞에 놓아주세요", updated.Message)
	assert.Equal(t, "202호", updated.Address.Address2)
	assert.Equal(t, "홍길동", updated.Address.Addressee)
	assert.Equal(t, out.TotalPrice, updated.TotalPrice)
	assert.Equal(t, out.Status, updated.Status)
	assert.Len(t, updated.OrderItems, 2)
}

func TestUpdateOrder_ReplaceItemsRecomputesTotal(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	updated, err := f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{
		Items: []usecase.OrderItemInput{{ItemID: f.hat.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), updated.TotalPrice)
	require.Len(t, updated.OrderItems, 1)
	assert.Equal(t, int64(4), updated.OrderItems[0].Quantity)

	_, err = f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{
		Items:      []usecase.OrderItemInput{{ItemID: f.hat.ID, Quantity: 1}},
		TotalPrice: ptr(int64(1)),
	})
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "total price mismatch", he.Message)
}

func TestUpdateOrder_TotalOnlyChecksCurrentLines(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	_, err := f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{TotalPrice: ptr(int64(25000))})
	assert.NoError(t, err)

	_, err = f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{TotalPrice: ptr(int64(1))})
	requireHTTPError(t, err, http.StatusBadRequest)
}

func TestOrder_KeepsPriceAtOrderTime(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	//注文後に商品価格が変わる
	shirt := f.shirt
	shirt.Price = 20000
	require.NoError(t, f.store.Repos().Items().Update(f.ctx, shirt))

	got, err := f.uc.GetOrder(f.ctx, f.requester(f.buyer), out.ID)
	require.NoError(t, err)
	var sum int64
	for _, line := range got.OrderItems {
		sum += line.Subtotal
	}
	assert.Equal(t, int64(25000), got.TotalPrice)
	assert.Equal(t, got.TotalPrice, sum)
	assert.Equal(t, int64(10000), got.OrderItems[0].UnitPrice)
	assert.Equal(t, "셔츠", got.OrderItems[0].Name)
	assert.Equal(t, int64(20000), got.OrderItems[0].Item.Price)

	//保存済みの合計をそのまま送っても通る
	updated, err := f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{
		Message:    ptr("x"),
		TotalPrice: ptr(int64(25000)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(25000), updated.TotalPrice)

	//明細を入れ替えたときは今の価格
	updated, err = f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{
		Items: []usecase.OrderItemInput{{ItemID: f.shirt.ID, Option: model.ItemOption{Color: "white", Size: "L"}, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), updated.TotalPrice)
	assert.Equal(t, int64(20000), updated.OrderItems[0].Subtotal)
}

func TestUpdateOrder_ShippingGuard(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, string(model.OrderStatusShipping))

	_, err := f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{Message: ptr("x")})
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "이미 배송중인 제품은 변경 또는 취소할 수 없습니다.", he.Message)

	//管理者でも同じ
	_, err = f.uc.UpdateOrder(f.ctx, f.admin, out.ID, usecase.UpdateOrderInput{Status: ptr("결제완료")})
	requireHTTPError(t, err, http.StatusBadRequest)
}

func TestUpdateOrder_MoveIntoProtectedStatusIsAllowed(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	updated, err := f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{Status: ptr("취소처리중")})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelRequested, updated.Status)
}

func TestUpdateOrder_NotOwner(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	_, err := f.uc.UpdateOrder(f.ctx, f.requester(f.other), out.ID, usecase.UpdateOrderInput{Message: ptr("x")})
	requireHTTPError(t, err, http.StatusUnauthorized)

	_, err = f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), uuid.NewString(), usecase.UpdateOrderInput{})
	requireHTTPError(t, err, http.StatusNotFound)
}

func TestUpdateOrder_FailedUpdateRollsBack(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	//明細を書き換えた後に住所の検証で失敗
	_, err := f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{
		Items:   []usecase.OrderItemInput{{ItemID: f.hat.ID, Quantity: 4}},
		Address: &usecase.AddressPatch{Addressee: ptr("")},
	})
	requireHTTPError(t, err, http.StatusBadRequest)

	got, err := f.uc.GetOrder(f.ctx, f.requester(f.buyer), out.ID)
	require.NoError(t, err)
	assert.Equal(t, "홍길동", got.Address.Addressee)
	assert.Equal(t, int64(25000), got.TotalPrice)
	assert.Len(t, got.OrderItems, 2)
}

func TestUpdateOrder_AddressMissing(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")
	require.NoError(t, f.store.Repos().Addresses().DeleteByIDs(f.ctx, []int64{out.Address.ID}))

	_, err := f.uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{
		Address: &usecase.AddressPatch{Address2: ptr("202호")},
	})
	he := requireHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, "해당 주소를 찾을 수 없습니다.", he.Message)
}

// =====================
// UpdateStatuses
// =====================

func TestUpdateStatuses_WritesAuditLogs(t *testing.T) {
	f := newOrderFixture(t)
	a := f.memberOrder(t, string(model.OrderStatusShipping))
	b := f.memberOrder(t, string(model.OrderStatusDelivered))

	outs, err := f.uc.UpdateStatuses(f.ctx, f.admin, []string{a.ID, b.ID, a.ID}, "배송완료")
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, a.ID, outs[0].ID)
	assert.Equal(t, model.OrderStatusDelivered, outs[0].Status)
	assert.Equal(t, model.OrderStatusDelivered, outs[1].Status)

	//変わった注文だけ
	logs, _, err := f.store.Repos().AuditLogs().List(f.ctx, repo.AuditLogFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, a.ID, logs[0].ResourceID)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, logs[0].Action)
	assert.Equal(t, f.admin.UserID, logs[0].ActorUserID)
	assert.JSONEq(t, `{"status":"배송중"}`, logs[0].BeforeJSON)
	assert.JSONEq(t, `{"status":"배송완료"}`, logs[0].AfterJSON)
}

func TestUpdateStatuses_MissingIDs(t *testing.T) {
	f := newOrderFixture(t)
	a := f.memberOrder(t, string(model.OrderStatusShipping))
	missing := uuid.NewString()

	_, err := f.uc.UpdateStatuses(f.ctx, f.admin, []string{a.ID, missing}, "배송완료")
	he := requireHTTPError(t, err, http.StatusNotFound)
	assert.Contains(t, he.Message, missing)

	got, err := f.uc.GetGuestOrder(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipping, got.Status)

	_, err = f.uc.UpdateStatuses(f.ctx, f.admin, nil, "배송완료")
	requireHTTPError(t, err, http.StatusBadRequest)
	_, err = f.uc.UpdateStatuses(f.ctx, f.admin, []string{a.ID}, "nope")
	requireHTTPError(t, err, http.StatusBadRequest)
}

// =====================
// DeleteOrders
// =====================

func TestDeleteOrders_AllOrNothing(t *testing.T) {
	f := newOrderFixture(t)
	open := f.memberOrder(t, "")
	shipped := f.memberOrder(t, string(model.OrderStatusShipping))

	err := f.uc.DeleteOrders(f.ctx, f.requester(f.buyer), []string{open.ID, shipped.ID})
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Contains(t, he.Message, "이미 배송중인 제품은 변경 또는 취소할 수 없습니다.")
	assert.Contains(t, he.Message, shipped.ID)

	//どちらも残っている
	_, err = f.uc.GetGuestOrder(f.ctx, open.ID)
	assert.NoError(t, err)
	_, err = f.uc.GetGuestOrder(f.ctx, shipped.ID)
	assert.NoError(t, err)
}

func TestDeleteOrders_RemovesItemsAndAddress(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	require.NoError(t, f.uc.DeleteOrders(f.ctx, f.requester(f.buyer), []string{out.ID}))

	_, err := f.uc.GetGuestOrder(f.ctx, out.ID)
	requireHTTPError(t, err, http.StatusNotFound)

	lines, err := f.store.Repos().OrderItems().ListByOrderID(f.ctx, out.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	_, err = f.store.Repos().Addresses().FindByID(f.ctx, out.Address.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDeleteOrders_OtherUsersOrder(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	err := f.uc.DeleteOrders(f.ctx, f.requester(f.other), []string{out.ID})
	requireHTTPError(t, err, http.StatusUnauthorized)

	err = f.uc.DeleteOrders(f.ctx, f.requester(f.buyer), []string{" ", ""})
	requireHTTPError(t, err, http.StatusBadRequest)
}

// =====================
// ShippingGuard
// =====================

func TestShippingGuard_CustomSet(t *testing.T) {
	g := usecase.NewShippingGuard(model.NewStatusSet(model.OrderStatusDelivered))
	assert.NoError(t, g.Check(model.OrderStatusShipping))
	assert.Error(t, g.Check(model.OrderStatusDelivered))
	assert.Equal(t, []model.OrderStatus{model.OrderStatusDelivered}, g.Protected())

	def := usecase.NewShippingGuard(nil)
	assert.True(t, def.IsProtected(model.OrderStatusShipping))
	assert.True(t, def.IsProtected(model.OrderStatusCanceled))
	assert.False(t, def.IsProtected(model.OrderStatusPreparing))
}

// =====================
// 条件付き書き込みの競合
// =====================

// 条件付き書き込みだけモックにして、それ以外はtx内の実ストアに流す
type MockConditionalOrderRepo struct {
	mock.Mock
	repo.OrderRepository
}

func (m *MockConditionalOrderRepo) UpdateIfStatus(ctx context.Context, orderID string, expected model.OrderStatus, changes repo.OrderChanges) error {
	args := m.Called(ctx, orderID, expected, changes)
	return args.Error(0)
}

func (m *MockConditionalOrderRepo) DeleteWhereStatusNotIn(ctx context.Context, orderIDs []string, protected []model.OrderStatus) (int64, error) {
	args := m.Called(ctx, orderIDs, protected)
	return args.Get(0).(int64), args.Error(1)
}

type mockedOrdersTx struct {
	st     *memory.Store
	orders *MockConditionalOrderRepo
}

func (tx *mockedOrdersTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tx.st.WithinTx(ctx, func(r repo.TxRepos) error {
		tx.orders.OrderRepository = r.Orders()
		return fn(mockedOrdersRepos{TxRepos: r, orders: tx.orders})
	})
}

type mockedOrdersRepos struct {
	repo.TxRepos
	orders repo.OrderRepository
}

func (r mockedOrdersRepos) Orders() repo.OrderRepository { return r.orders }

func (f *orderFixture) conflictUsecase() (*usecase.OrderUsecase, *MockConditionalOrderRepo) {
	orders := new(MockConditionalOrderRepo)
	tx := &mockedOrdersTx{st: f.store, orders: orders}
	return usecase.NewOrderUsecase(tx, nil, f.notifier, logging.Discard()), orders
}

func TestUpdateOrder_StatusConflictRollsBack(t *testing.T) {
	f := newOrderFixture(t)
	out := f.memberOrder(t, "")

	uc, orders := f.conflictUsecase()
	orders.On("UpdateIfStatus", mock.Anything, out.ID, out.Status, mock.Anything).Return(repo.ErrStatusConflict).Once()

	//明細と住所を書いた後で注文の更新が競合する
	_, err := uc.UpdateOrder(f.ctx, f.requester(f.buyer), out.ID, usecase.UpdateOrderInput{
		Items:   []usecase.OrderItemInput{{ItemID: f.hat.ID, Quantity: 4}},
		Address: &usecase.AddressPatch{Addressee: ptr("김철수")},
	})
	he := requireHTTPError(t, err, http.StatusConflict)
	assert.Equal(t, "order status changed concurrently", he.Message)
	orders.AssertExpectations(t)

	got, err := f.uc.GetOrder(f.ctx, f.requester(f.buyer), out.ID)
	require.NoError(t, err)
	assert.Equal(t, "홍길동", got.Address.Addressee)
	assert.Equal(t, int64(25000), got.TotalPrice)
	require.Len(t, got.OrderItems, 2)
	assert.Equal(t, int64(2), got.OrderItems[0].Quantity)
}

func TestDeleteOrders_ShortDeleteIsConflict(t *testing.T) {
	f := newOrderFixture(t)
	first := f.memberOrder(t, "")
	second := f.memberOrder(t, "")
	ids := []string{first.ID, second.ID}

	uc, orders := f.conflictUsecase()
	//1件だけ消えた（もう1件は途中でステータスが変わった）
	orders.On("DeleteWhereStatusNotIn", mock.Anything, ids, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, err := orders.OrderRepository.DeleteWhereStatusNotIn(ctx, ids[:1], nil)
			require.NoError(t, err)
		}).
		Return(int64(1), nil).Once()

	err := uc.DeleteOrders(f.ctx, f.requester(f.buyer), ids)
	requireHTTPError(t, err, http.StatusConflict)
	orders.AssertExpectations(t)

	//何も消えていない
	for _, id := range ids {
		got, err := f.uc.GetOrder(f.ctx, f.requester(f.buyer), id)
		require.NoError(t, err)
		assert.Len(t, got.OrderItems, 2)
		assert.Equal(t, "홍길동", got.Address.Addressee)
	}
}
