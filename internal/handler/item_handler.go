package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"rebirth/internal/domain/model"
	"rebirth/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 画像1枚あたりの上限
const maxImageBytes = 10 << 20

// /items の公開APIと管理API
type ItemHandler struct {
	uc *usecase.ItemUsecase
}

func NewItemHandler(uc *usecase.ItemUsecase) *ItemHandler {
	return &ItemHandler{uc: uc}
}

type ItemIDsRequest struct {
	ItemIDs []int64 `json:"itemIds"`
}

type itemResponse struct {
	Message string     `json:"message"`
	Item    model.Item `json:"item"`
}

type itemDeleteResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

func (h *ItemHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	g := api.Group("/items")

	g.GET("", h.listAll)
	g.GET("/:page/:limit", h.listPage)
	g.GET("/:categoryName/:page/:limit", h.listByCategory)
	g.GET("/:id", h.detail)

	g.POST("", h.create, guards.Admin...)
	g.PUT("/:id", h.update, guards.Admin...)
	g.DELETE("", h.delete, guards.Admin...)
}

func (h *ItemHandler) listAll(c echo.Context) error {
	items, err := h.uc.ListItems(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) listPage(c echo.Context) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListItemsPage(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ItemHandler) listByCategory(c echo.Context) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListItemsByCategory(c.Request().Context(), c.Param("categoryName"), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ItemHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}
	item, err := h.uc.GetItem(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) create(c echo.Context) error {
	requester, ok := requesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	form, err := readItemForm(c)
	if err != nil {
		return writeError(c, err)
	}

	item, err := h.uc.AddItem(c.Request().Context(), requester, form.input, form.image, form.details, form.detailCount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, itemResponse{Message: "아이템이 성공적으로 추가되었습니다.", Item: item})
}

func (h *ItemHandler) update(c echo.Context) error {
	requester, ok := requesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	form, err := readItemForm(c)
	if err != nil {
		return writeError(c, err)
	}

	item, err := h.uc.UpdateItem(c.Request().Context(), requester, id, form.input, form.image, form.details, form.detailCount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, itemResponse{Message: "아이템이 성공적으로 수정되었습니다.", Item: item})
}

func (h *ItemHandler) delete(c echo.Context) error {
	requester, ok := requesterFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	var req ItemIDsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	n, err := h.uc.DeleteItems(c.Request().Context(), requester, req.ItemIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, itemDeleteResponse{Message: "아이템이 삭제되었습니다.", Count: n})
}

type itemForm struct {
	input       usecase.ItemInput
	image       *usecase.ImageUpload
	details     []usecase.ImageUpload
	detailCount int
}

// multipart: category, name, price, option(JSON), content, image, detail_image[]
// ?detailCount= がなければ詳細画像の枚数は見ない
func readItemForm(c echo.Context) (itemForm, error) {
	var f itemForm

	price, err := strconv.ParseInt(strings.TrimSpace(c.FormValue("price")), 10, 64)
	if err != nil {
		return f, usecase.BadRequest("invalid price")
	}
	f.input = usecase.ItemInput{
		Category:   c.FormValue("category"),
		Name:       c.FormValue("name"),
		Price:      price,
		OptionJSON: c.FormValue("option"),
		Content:    c.FormValue("content"),
	}

	f.detailCount = -1
	if v := c.QueryParam("detailCount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, usecase.BadRequest("invalid detailCount")
		}
		f.detailCount = n
	}

	form, err := c.MultipartForm()
	if err != nil {
		return f, usecase.BadRequest("invalid multipart form")
	}
	if files := form.File["image"]; len(files) > 0 {
		img, err := readUpload(files[0])
		if err != nil {
			return f, err
		}
		f.image = &img
	}
	for _, fh := range form.File["detail_image[]"] {
		img, err := readUpload(fh)
		if err != nil {
			return f, err
		}
		f.details = append(f.details, img)
	}
	return f, nil
}

func readUpload(fh *multipart.FileHeader) (usecase.ImageUpload, error) {
	if fh.Size > maxImageBytes {
		return usecase.ImageUpload{}, usecase.BadRequest("image too large")
	}
	src, err := fh.Open()
	if err != nil {
		return usecase.ImageUpload{}, usecase.BadRequest("invalid image")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxImageBytes+1))
	if err != nil {
		return usecase.ImageUpload{}, usecase.BadRequest("invalid image")
	}
	return usecase.ImageUpload{Filename: fh.Filename, Data: data}, nil
}
