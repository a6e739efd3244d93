package usecase

import (
	"context"
	"strings"

	"rebirth/internal/domain/model"
	repo "rebirth/internal/repository"

	"github.com/sirupsen/logrus"
)

// 管理者操作（一括ステータス変更、商品削除）の履歴を読む
type AuditLogUsecase struct {
	logs   repo.AuditLogRepository
	logger logrus.FieldLogger
}

func NewAuditLogUsecase(logs repo.AuditLogRepository, logger logrus.FieldLogger) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs, logger: logger}
}

// 空文字/0は条件なし
type AuditLogQuery struct {
	Page         int
	Limit        int
	ActorUserID  int64
	Action       string
	ResourceType string
	ResourceID   string
}

type AuditLogPage struct {
	Logs        []model.AuditLog `json:"logs"`
	Count       int64            `json:"count"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

func (u *AuditLogUsecase) List(ctx context.Context, q AuditLogQuery) (AuditLogPage, error) {
	if q.Page < 1 {
		return AuditLogPage{}, BadRequest(msgInvalidPage)
	}
	if q.Limit < 1 || q.Limit > 100 {
		return AuditLogPage{}, BadRequest(msgInvalidLimit)
	}

	f := repo.AuditLogFilter{
		Page:       q.Page,
		Limit:      q.Limit,
		ResourceID: strings.TrimSpace(q.ResourceID),
	}
	if q.ActorUserID > 0 {
		f.ActorUserID = &q.ActorUserID
	}
	if v := strings.TrimSpace(q.Action); v != "" {
		a := model.AuditAction(strings.ToUpper(v))
		if !a.IsKnown() {
			return AuditLogPage{}, BadRequest("invalid action")
		}
		f.Action = &a
	}
	if v := strings.TrimSpace(q.ResourceType); v != "" {
		t := model.AuditResourceType(strings.ToLower(v))
		if !t.IsKnown() {
			return AuditLogPage{}, BadRequest("invalid resource_type")
		}
		f.ResourceType = &t
	}

	logs, count, err := u.logs.List(ctx, f)
	if err != nil {
		u.logger.WithError(err).Error("list audit logs")
		return AuditLogPage{}, Internal(msgDBError)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogPage{
		Logs:        logs,
		Count:       count,
		TotalPages:  totalPages(count, q.Limit),
		CurrentPage: q.Page,
	}, nil
}
