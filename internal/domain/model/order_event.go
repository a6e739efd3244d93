package model

import "time"

const EventOrderPlaced = "order.placed"

// 注文完了の通知内容（受取人と注文番号）
type OrderPlacedEvent struct {
	Event      string    `json:"event"`
	OrderID    string    `json:"order_id"`
	Recipient  string    `json:"recipient"`
	Guest      bool      `json:"guest"`
	TotalPrice int64     `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}
