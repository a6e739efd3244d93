package handler

import (
	"net/http"
	"strconv"

	"rebirth/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminAuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAdminAuditLogHandler(uc *usecase.AuditLogUsecase) *AdminAuditLogHandler {
	return &AdminAuditLogHandler{uc: uc}
}

type auditLogListResponse struct {
	Message string `json:"message"`
	usecase.AuditLogPage
}

func (h *AdminAuditLogHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	admin := api.Group("/admin", guards.Admin...)

	admin.GET("/audit-logs/:page/:limit", h.list)
}

// ?action=&resource_type=&resource_id=&actor_user_id=
func (h *AdminAuditLogHandler) list(c echo.Context) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}

	q := usecase.AuditLogQuery{
		Page:         page,
		Limit:        limit,
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   c.QueryParam("resource_id"),
	}
	if v := c.QueryParam("actor_user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid actor_user_id"})
		}
		q.ActorUserID = id
	}

	out, err := h.uc.List(c.Request().Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, auditLogListResponse{Message: "감사 로그 조회에 성공하였습니다.", AuditLogPage: out})
}
