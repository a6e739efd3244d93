package notify

import (
	"context"

	"rebirth/internal/domain/model"
)

// 注文完了をどこかへ知らせる。メール送信そのものは購読側の仕事。
type Notifier interface {
	OrderPlaced(ctx context.Context, ev model.OrderPlacedEvent) error
	Close() error
}
