package handler

import (
	"net/http"

	"rebirth/internal/domain/model"
	"rebirth/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	msgOrderPlaced  = "주문이 완료되었습니다."
	msgOrderFound   = "주문 조회에 성공하였습니다."
	msgOrderUpdated = "주문 정보가 변경되었습니다."
	msgOrderDeleted = "주문이 삭제되었습니다."
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type orderItemRequest struct {
	ItemID   int64            `json:"item_id"`
	Option   model.ItemOption `json:"option"`
	Quantity int64            `json:"quantity"`
}

type addressRequest struct {
	Addressee  string `json:"addressee"`
	PostalCode string `json:"postal_code"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	Phone      string `json:"phone"`
}

type addressPatchRequest struct {
	Addressee  *string `json:"addressee"`
	PostalCode *string `json:"postal_code"`
	Address1   *string `json:"address1"`
	Address2   *string `json:"address2"`
	Phone      *string `json:"phone"`
}

// POST /orders と /orders/guest の共通ボディ。emailは非会員のみ。
type OrderCreateRequest struct {
	OrderItems []orderItemRequest `json:"orderItems"`
	Email      string             `json:"email"`
	Address    addressRequest     `json:"address"`
	TotalPrice int64              `json:"totalPrice"`
	Status     string             `json:"status"`
	Message    string             `json:"message"`
}

// 省略した項目は変更しない
type OrderUpdateRequest struct {
	Message    *string              `json:"message"`
	Address    *addressPatchRequest `json:"address"`
	Status     *string              `json:"status"`
	OrderItems []orderItemRequest   `json:"orderItems"`
	TotalPrice *int64               `json:"totalPrice"`
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

type OrderIDsRequest struct {
	OrderIDs []string `json:"orderIds"`
	Status   string   `json:"status"`
}

type GuestOrderRequest struct {
	OrderID string `json:"orderId"`
}

type orderResponse struct {
	Message string              `json:"message"`
	Order   usecase.OrderOutput `json:"order"`
}

type orderListResponse struct {
	Message string `json:"message"`
	usecase.OrderPage
}

type orderUpdateResponse struct {
	Message      string              `json:"message"`
	UpdatedOrder usecase.OrderOutput `json:"updatedOrder"`
}

type orderBulkResponse struct {
	Message       string                `json:"message"`
	UpdatedOrders []usecase.OrderOutput `json:"updatedOrders"`
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	g := api.Group("/orders")

	g.POST("", h.create, guards.User...)
	g.POST("/guest", h.createGuest)
	g.GET("/:page/:limit", h.list, guards.Admin...)
	g.GET("/:id", h.detail, guards.User...)
	g.POST("/shipping/:page/:limit", h.listByStatus, guards.User...)
	g.POST("/get/guest", h.guestDetail)
	g.GET("/page/:page/:limit", h.listMine, guards.User...)
	g.PATCH("/:id/update", h.update, guards.User...)
	g.PATCH("/update/status", h.updateStatuses, guards.Admin...)
	g.DELETE("/delete", h.delete, guards.User...)
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	in := toPlaceOrderInput(req)
	in.UserID = &userID
	out, err := h.uc.PlaceOrder(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, orderResponse{Message: msgOrderPlaced, Order: out})
}

func (h *OrderHandler) createGuest(c echo.Context) error {
	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	in := toPlaceOrderInput(req)
	in.GuestEmail = req.Email
	out, err := h.uc.PlaceOrder(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, orderResponse{Message: msgOrderPlaced, Order: out})
}

// 管理者：全注文
func (h *OrderHandler) list(c echo.Context) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListOrders(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderListResponse{Message: msgOrderFound, OrderPage: out})
}

func (h *OrderHandler) detail(c echo.Context) error {
	requester, ok := requesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	out, err := h.uc.GetOrder(c.Request().Context(), requester, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderResponse{Message: msgOrderFound, Order: out})
}

// 配送状況別。管理者は全ユーザー分を見る。
func (h *OrderHandler) listByStatus(c echo.Context) error {
	requester, ok := requesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}
	page, limit, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	var userID *int64
	if !requester.IsAdmin() {
		userID = &requester.UserID
	}
	out, err := h.uc.ListOrdersByStatus(c.Request().Context(), userID, req.Status, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderListResponse{Message: msgOrderFound, OrderPage: out})
}

func (h *OrderHandler) guestDetail(c echo.Context) error {
	var req GuestOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	out, err := h.uc.GetGuestOrder(c.Request().Context(), req.OrderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderResponse{Message: msgOrderFound, Order: out})
}

func (h *OrderHandler) listMine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}
	page, limit, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListOrdersByUser(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderListResponse{Message: msgOrderFound, OrderPage: out})
}

func (h *OrderHandler) update(c echo.Context) error {
	requester, ok := requesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	var req OrderUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	in := usecase.UpdateOrderInput{
		Message:    req.Message,
		Status:     req.Status,
		TotalPrice: req.TotalPrice,
	}
	if req.OrderItems != nil {
		in.Items = toOrderItemInputs(req.OrderItems)
	}
	if req.Address != nil {
		in.Address = &usecase.AddressPatch{
			Addressee:  req.Address.Addressee,
			PostalCode: req.Address.PostalCode,
			Address1:   req.Address.Address1,
			Address2:   req.Address.Address2,
			Phone:      req.Address.Phone,
		}
	}

	out, err := h.uc.UpdateOrder(c.Request().Context(), requester, c.Param("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderUpdateResponse{Message: msgOrderUpdated, UpdatedOrder: out})
}

// 管理者：配送ダッシュボードからの一括変更
func (h *OrderHandler) updateStatuses(c echo.Context) error {
	requester, ok := requesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	var req OrderIDsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	outs, err := h.uc.UpdateStatuses(c.Request().Context(), requester, req.OrderIDs, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderBulkResponse{Message: msgOrderUpdated, UpdatedOrders: outs})
}

func (h *OrderHandler) delete(c echo.Context) error {
	requester, ok := requesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	var req OrderIDsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	if err := h.uc.DeleteOrders(c.Request().Context(), requester, req.OrderIDs); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: msgOrderDeleted})
}

func toPlaceOrderInput(req OrderCreateRequest) usecase.PlaceOrderInput {
	return usecase.PlaceOrderInput{
		Items: toOrderItemInputs(req.OrderItems),
		Address: usecase.AddressInput{
			Addressee:  req.Address.Addressee,
			PostalCode: req.Address.PostalCode,
			Address1:   req.Address.Address1,
			Address2:   req.Address.Address2,
			Phone:      req.Address.Phone,
		},
		TotalPrice: req.TotalPrice,
		Status:     req.Status,
		Message:    req.Message,
	}
}

func toOrderItemInputs(reqs []orderItemRequest) []usecase.OrderItemInput {
	out := make([]usecase.OrderItemInput, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, usecase.OrderItemInput{
			ItemID:   r.ItemID,
			Option:   r.Option,
			Quantity: r.Quantity,
		})
	}
	return out
}
