package repository

import (
	"context"

	"rebirth/internal/domain/model"
)

// 管理画面の監査ログ一覧の絞り込み。nil/空は条件なし。
type AuditLogFilter struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   string
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	//新しい順（id desc）。総件数も返す。
	List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, int64, error)
}
