package model

import "time"

// 選択されたオプション
type ItemOption struct {
	Color string `gorm:"type:varchar(50)" json:"color"`
	Size  string `gorm:"type:varchar(50)" json:"size"`
}

// 価格と商品名は注文時点の値を持つ。商品マスタが変わっても合計は変わらない。
type OrderItem struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           string     `gorm:"type:uuid;not null;index" json:"order_id"`
	ItemID            int64      `gorm:"not null;index" json:"item_id"`
	ItemNameSnapshot  string     `gorm:"type:varchar(255);not null" json:"item_name_snapshot"`
	UnitPriceSnapshot int64      `gorm:"not null" json:"unit_price_snapshot"`
	Option            ItemOption `gorm:"embedded;embeddedPrefix:option_" json:"option"`
	Quantity          int64      `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (oi OrderItem) Subtotal() int64 {
	return oi.UnitPriceSnapshot * oi.Quantity
}
