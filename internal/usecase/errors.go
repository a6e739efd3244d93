package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// handlerがそのままステータスとメッセージに変換するエラー
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func BadRequest(message string) error   { return NewHTTPError(http.StatusBadRequest, message) }
func NotFound(message string) error     { return NewHTTPError(http.StatusNotFound, message) }
func Unauthorized(message string) error { return NewHTTPError(http.StatusUnauthorized, message) }
func Forbidden(message string) error    { return NewHTTPError(http.StatusForbidden, message) }
func Conflict(message string) error     { return NewHTTPError(http.StatusConflict, message) }
func Internal(message string) error     { return NewHTTPError(http.StatusInternalServerError, message) }

const (
	msgOrderNotFound    = "해당 주문을 찾을 수 없습니다."
	msgItemNotFound     = "해당 아이템을 찾을 수 없습니다."
	msgAddressNotFound  = "해당 주소를 찾을 수 없습니다."
	msgOrderForbidden   = "주문 정보를 조회할 권한이 없습니다."
	msgDBError          = "db error"
	msgInvalidStatus    = "invalid status"
	msgInvalidPage      = "invalid page"
	msgInvalidLimit     = "invalid limit"
	msgTotalMismatch    = "total price mismatch"
	msgStatusConflict   = "order status changed concurrently"
	msgOrderIDsRequired = "orderIds required"
)
