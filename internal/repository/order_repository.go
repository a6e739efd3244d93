package repository

import (
	"context"
	"errors"

	"rebirth/internal/domain/model"
)

// 条件付き更新で、読んだ時点からステータスが変わっていた
var ErrStatusConflict = errors.New("order status conflict")

// 注文一覧の絞り込み
type OrderListFilter struct {
	Page   int
	Limit  int
	Status *model.OrderStatus
	UserID *int64
}

// 注文の更新可能な項目
type OrderChanges struct {
	Message    string
	AddressID  int64
	Status     model.OrderStatus
	TotalPrice int64
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	FindByIDs(ctx context.Context, orderIDs []string) ([]model.Order, error)
	//新しい順（created_at desc, id desc）
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) error

	//現在のステータスが expected のときだけ更新する。違えば ErrStatusConflict。
	UpdateIfStatus(ctx context.Context, orderID string, expected model.OrderStatus, changes OrderChanges) error

	//ステータスを一括で書き換える（ガードなし）
	UpdateStatuses(ctx context.Context, orderIDs []string, status model.OrderStatus) (int64, error)

	//保護ステータス以外だけ削除。削除件数を返す。
	DeleteWhereStatusNotIn(ctx context.Context, orderIDs []string, protected []model.OrderStatus) (int64, error)
}
