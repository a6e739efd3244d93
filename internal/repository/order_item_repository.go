package repository

import (
	"context"

	"rebirth/internal/domain/model"
)

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error)
	ListByOrderIDs(ctx context.Context, orderIDs []string) ([]model.OrderItem, error)
	DeleteByOrderIDs(ctx context.Context, orderIDs []string) error
}
