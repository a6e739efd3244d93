package middleware

import (
	"net/http"

	"rebirth/internal/domain/model"
	"rebirth/internal/repository"

	"github.com/labstack/echo/v4"
)

// 保存されているユーザーとトークンの中身を突き合わせる。
// 強制ログアウト（token_version更新）、無効化、ロール変更のどれでも401。
func TokenVersionGuard(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(CtxUserIDKey).(int64)
			tv, hasTV := c.Get(CtxTokenVersionKey).(int)
			role, _ := c.Get(CtxUserRoleKey).(string)
			if userID <= 0 || !hasTV || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			u, err := users.FindByID(c.Request().Context(), userID)
			if err != nil || u == nil || !tokenMatches(u, tv, role) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

func tokenMatches(u *model.User, tv int, role string) bool {
	if !u.IsActive || u.TokenVersion != tv {
		return false
	}
	//ロールが変わったら古いトークンは使えない
	return role == "" || model.Role(role) == u.Role
}
