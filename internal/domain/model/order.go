package model

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPaid            OrderStatus = "결제완료"
	OrderStatusPreparing       OrderStatus = "배송준비중"
	OrderStatusShipping        OrderStatus = "배송중"
	OrderStatusDelivered       OrderStatus = "배송완료"
	OrderStatusCancelRequested OrderStatus = "취소처리중"
	OrderStatusCanceled        OrderStatus = "주문취소"
)

// 定義済みのステータス（表示順）
var KnownOrderStatuses = []OrderStatus{
	OrderStatusPaid,
	OrderStatusPreparing,
	OrderStatusShipping,
	OrderStatusDelivered,
	OrderStatusCancelRequested,
	OrderStatusCanceled,
}

func (s OrderStatus) IsKnown() bool {
	for _, k := range KnownOrderStatuses {
		if s == k {
			return true
		}
	}
	return false
}

// ステータスの集合
type StatusSet map[OrderStatus]struct{}

func NewStatusSet(statuses ...OrderStatus) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

// 変更・キャンセル不可のステータス
func DefaultProtectedStatuses() StatusSet {
	return NewStatusSet(
		OrderStatusShipping,
		OrderStatusDelivered,
		OrderStatusCancelRequested,
		OrderStatusCanceled,
	)
}

// "배송중,배송완료" の形式を読む。空なら nil。
func ParseStatusSet(csv string) (StatusSet, []string) {
	var unknown []string
	set := StatusSet{}
	for _, part := range strings.Split(csv, ",") {
		s := OrderStatus(strings.TrimSpace(part))
		if s == "" {
			continue
		}
		if !s.IsKnown() {
			unknown = append(unknown, string(s))
			continue
		}
		set[s] = struct{}{}
	}
	if len(set) == 0 {
		return nil, unknown
	}
	return set, unknown
}

func (s StatusSet) Contains(status OrderStatus) bool {
	_, ok := s[status]
	return ok
}

// 表示順で返す
func (s StatusSet) List() []OrderStatus {
	out := make([]OrderStatus, 0, len(s))
	for _, k := range KnownOrderStatuses {
		if s.Contains(k) {
			out = append(out, k)
		}
	}
	return out
}

// 注文の集約ルート。UserIDがnilなら非会員注文。
type Order struct {
	ID         string      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *int64      `gorm:"index" json:"user_id"`
	GuestEmail string      `gorm:"type:varchar(255)" json:"-"`
	AddressID  int64       `gorm:"not null" json:"address_id"`
	Status     OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice int64       `gorm:"not null" json:"total_price"`
	Message    string      `gorm:"type:text" json:"message"`
	CreatedAt  time.Time   `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null" json:"updated_at"`
}

func (o Order) IsGuest() bool {
	return o.UserID == nil
}
