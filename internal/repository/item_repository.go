package repository

import (
	"context"
	"errors"

	"rebirth/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ItemListQuery struct {
	Page     int
	Limit    int
	Category string
}

// 商品の永続化（保存・取得）だけを約束。
type ItemRepository interface {
	ListAll(ctx context.Context) ([]model.Item, error)
	List(ctx context.Context, q ItemListQuery) ([]model.Item, int64, error)
	FindByID(ctx context.Context, id int64) (model.Item, error)
	//削除済みも含めて取得（注文明細の表示用）
	FindByIDsUnscoped(ctx context.Context, ids []int64) ([]model.Item, error)

	Create(ctx context.Context, item model.Item) (model.Item, error)
	Update(ctx context.Context, item model.Item) error
	//論理削除。削除した件数を返す。
	SoftDeleteMany(ctx context.Context, ids []int64) (int64, error)
}
