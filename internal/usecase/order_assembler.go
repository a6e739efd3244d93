package usecase

import (
	"context"
	"fmt"
	"time"

	"rebirth/internal/domain/model"
	repo "rebirth/internal/repository"
)

// 注文者（会員注文のみ）
type OrderUserOutput struct {
	ID    int64      `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// 明細に載せる商品情報。削除済みの商品も表示する。
type OrderItemProduct struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url"`
}

// Itemは今の商品マスタ、Name/UnitPriceは注文時点の値
type OrderItemOutput struct {
	ID        int64             `json:"id"`
	Item      *OrderItemProduct `json:"item"`
	Name      string            `json:"name"`
	UnitPrice int64             `json:"unit_price"`
	Option    model.ItemOption  `json:"option"`
	Quantity  int64             `json:"quantity"`
	Subtotal  int64             `json:"subtotal"`
}

// 読み出し時の注文。user/itemは欠けることがある（非会員、商品の物理削除）。
// addressは必須で、欠けていればデータ不整合として扱う。
type OrderOutput struct {
	ID         string            `json:"id"`
	User       *OrderUserOutput  `json:"user"`
	Address    model.Address     `json:"address"`
	OrderItems []OrderItemOutput `json:"order_items"`
	TotalPrice int64             `json:"total_price"`
	Status     model.OrderStatus `json:"status"`
	Message    string            `json:"message"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// user / address / order_items / items をまとめて引いて組み立てる。順序は orders のまま。
func assembleOrders(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	if len(orders) == 0 {
		return []OrderOutput{}, nil
	}

	orderIDs := make([]string, 0, len(orders))
	userIDs := make([]int64, 0, len(orders))
	addressIDs := make([]int64, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		addressIDs = append(addressIDs, o.AddressID)
		if o.UserID != nil {
			userIDs = append(userIDs, *o.UserID)
		}
	}

	users, err := r.Users().FindByIDs(ctx, uniqueInt64(userIDs))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	userByID := make(map[int64]model.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	addresses, err := r.Addresses().FindByIDs(ctx, uniqueInt64(addressIDs))
	if err != nil {
		return nil, fmt.Errorf("find addresses: %w", err)
	}
	addressByID := make(map[int64]model.Address, len(addresses))
	for _, a := range addresses {
		addressByID[a.ID] = a
	}

	orderItems, err := r.OrderItems().ListByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	itemsByOrder := make(map[string][]model.OrderItem, len(orders))
	itemIDs := make([]int64, 0, len(orderItems))
	for _, oi := range orderItems {
		itemsByOrder[oi.OrderID] = append(itemsByOrder[oi.OrderID], oi)
		itemIDs = append(itemIDs, oi.ItemID)
	}

	items, err := r.Items().FindByIDsUnscoped(ctx, uniqueInt64(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	itemByID := make(map[int64]model.Item, len(items))
	for _, it := range items {
		itemByID[it.ID] = it
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		addr, ok := addressByID[o.AddressID]
		if !ok {
			return nil, fmt.Errorf("order %s: address %d missing", o.ID, o.AddressID)
		}

		out := OrderOutput{
			ID:         o.ID,
			Address:    addr,
			OrderItems: make([]OrderItemOutput, 0, len(itemsByOrder[o.ID])),
			TotalPrice: o.TotalPrice,
			Status:     o.Status,
			Message:    o.Message,
			CreatedAt:  o.CreatedAt,
			UpdatedAt:  o.UpdatedAt,
		}
		if o.UserID != nil {
			if u, ok := userByID[*o.UserID]; ok {
				out.User = &OrderUserOutput{ID: u.ID, Email: u.Email, Role: u.Role}
			}
		}

		for _, oi := range itemsByOrder[o.ID] {
			line := OrderItemOutput{
				ID:        oi.ID,
				Name:      oi.ItemNameSnapshot,
				UnitPrice: oi.UnitPriceSnapshot,
				Option:    oi.Option,
				Quantity:  oi.Quantity,
				Subtotal:  oi.Subtotal(),
			}
			if it, ok := itemByID[oi.ItemID]; ok {
				line.Item = &OrderItemProduct{
					ID:       it.ID,
					Category: it.Category,
					Name:     it.Name,
					Price:    it.Price,
					ImageURL: it.ImageURL,
				}
			}
			out.OrderItems = append(out.OrderItems, line)
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func uniqueInt64(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
