package repository

import (
	"context"

	"rebirth/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	//Create は住所を新規作成する。
	//作成後はaddress（IDなどが埋まったもの）を返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//住所IDから住所を1件取得
	FindByID(ctx context.Context, addressID int64) (model.Address, error)

	//まとめて取得（見つからないIDは結果に含まれない）
	FindByIDs(ctx context.Context, addressIDs []int64) ([]model.Address, error)

	//住所の更新（IDで指定、全項目を書き換える）
	Update(ctx context.Context, address model.Address) error

	//注文削除と一緒に消す
	DeleteByIDs(ctx context.Context, addressIDs []int64) error
}
