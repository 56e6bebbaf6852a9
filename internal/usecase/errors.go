package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"cartline/internal/domain/model"
	repo "cartline/internal/repository"

	"go.uber.org/zap"
)

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

// 明細の検証エラーをコードにする（APIのissueに出す）
const (
	CodeInvalidProduct  = "invalid_product"
	CodeInvalidQuantity = "invalid_quantity"
	CodeCorruptPricing  = "corrupt_pricing"
)

func issueCode(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidProduct):
		return CodeInvalidProduct
	case errors.Is(err, model.ErrInvalidQuantity):
		return CodeInvalidQuantity
	case errors.Is(err, model.ErrCorruptPricing):
		return CodeCorruptPricing
	default:
		return ""
	}
}

// ドメインのエラーをHTTPErrorへ。ユーザー向けの文言はここで決める。
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidProduct):
		return NewHTTPError(http.StatusBadRequest, "invalid product")
	case errors.Is(err, model.ErrInvalidQuantity):
		return NewHTTPError(http.StatusBadRequest, "stock exceeded")
	case errors.Is(err, model.ErrCorruptPricing):
		return NewHTTPError(http.StatusConflict, "price unavailable")
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

// 500はログに残す
func dbError(log *zap.Logger, op string, err error) error {
	log.Error("db error", zap.String("op", op), zap.Error(err))
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
