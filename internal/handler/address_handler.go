package handler

import (
	"net/http"
	"strconv"

	"rebirth/internal/domain/model"
	"rebirth/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 配送先の参照（管理者のみ）。作成・更新は注文API経由。
type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

type addressResponse struct {
	Message string        `json:"message"`
	Address model.Address `json:"address"`
}

func (h *AddressHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	api.GET("/addresses/:id", h.Get, guards.Admin...)
}

func (h *AddressHandler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	a, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, addressResponse{Message: "주소 조회에 성공하였습니다.", Address: a})
}
