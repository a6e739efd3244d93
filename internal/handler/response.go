package handler

import (
	"net/http"
	"strconv"

	"rebirth/internal/domain/model"
	"rebirth/internal/middleware"
	"rebirth/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// 認証まわりのミドルウェア束。serverで組み立てて渡す。
type Guards struct {
	User  []echo.MiddlewareFunc // JWT + token_version
	Admin []echo.MiddlewareFunc // User + admin限定
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Message: he.Message})
	}

	//500
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

// AuthJWTが入れた値から呼び出し元を作る
func requesterFromContext(c echo.Context) (usecase.Requester, bool) {
	id, ok := getUserIDFromContext(c)
	if !ok || id <= 0 {
		return usecase.Requester{}, false
	}
	email, _ := c.Get(middleware.CtxUserEmailKey).(string)
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	return usecase.Requester{UserID: id, Email: email, Role: model.Role(role)}, true
}

// /:page/:limit を読む。範囲チェックはusecase側。
func pageParams(c echo.Context) (int, int, error) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		return 0, 0, usecase.BadRequest("invalid page")
	}
	limit, err := strconv.Atoi(c.Param("limit"))
	if err != nil {
		return 0, 0, usecase.BadRequest("invalid limit")
	}
	return page, limit, nil
}
