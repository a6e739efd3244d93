package server

import (
	"net/http"

	"rebirth/internal/handler"
	"rebirth/internal/middleware"
	"rebirth/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	AdminUser *handler.AdminUserHandler
	Orders    *handler.OrderHandler
	Items     *handler.ItemHandler
	Addresses *handler.AddressHandler
	AuditLogs *handler.AdminAuditLogHandler
}

// 認証ミドルウェアの組み合わせ
func NewGuards(jwtSecret string, users repository.UserRepository) handler.Guards {
	user := []echo.MiddlewareFunc{
		middleware.AuthJWT(jwtSecret),
		middleware.TokenVersionGuard(users),
	}
	admin := append(append([]echo.MiddlewareFunc{}, user...), middleware.AdminRoleGuard())
	return handler.Guards{User: user, Admin: admin}
}

func RegisterRoutes(e *echo.Echo, h Handlers, guards handler.Guards) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	api := e.Group("/api/v1")
	h.Auth.RegisterRoutes(api, guards)
	h.AdminUser.RegisterRoutes(api, guards)
	h.Orders.RegisterRoutes(api, guards)
	h.Items.RegisterRoutes(api, guards)
	h.Addresses.RegisterRoutes(api, guards)
	h.AuditLogs.RegisterRoutes(api, guards)
}
