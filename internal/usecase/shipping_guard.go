package usecase

import (
	"rebirth/internal/domain/model"
)

const msgShippingLocked = "이미 배송중인 제품은 변경 또는 취소할 수 없습니다."

// 配送が始まった注文（と取消系）は変更・削除させない
type ShippingGuard struct {
	protected model.StatusSet
}

// nilならデフォルトの保護ステータスを使う
func NewShippingGuard(protected model.StatusSet) *ShippingGuard {
	if protected == nil {
		protected = model.DefaultProtectedStatuses()
	}
	return &ShippingGuard{protected: protected}
}

func (g *ShippingGuard) Check(status model.OrderStatus) error {
	if g.protected.Contains(status) {
		return BadRequest(msgShippingLocked)
	}
	return nil
}

func (g *ShippingGuard) IsProtected(status model.OrderStatus) bool {
	return g.protected.Contains(status)
}

func (g *ShippingGuard) Protected() []model.OrderStatus {
	return g.protected.List()
}
