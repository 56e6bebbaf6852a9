package handler

import (
	"net/http"

	"cartline/internal/domain/model"
	"cartline/internal/usecase"

	"github.com/labstack/echo/v4"
)

type QuoteLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// store_id は null/省略で「店舗なし」
type QuoteRequest struct {
	Currency string             `json:"currency"`
	StoreID  model.StoreID      `json:"store_id"`
	Lines    []QuoteLineRequest `json:"lines"`
}

// POST /quote（ログイン不要）
type QuoteHandler struct {
	uc *usecase.QuoteUsecase
}

// DI
func NewQuoteHandler(uc *usecase.QuoteUsecase) *QuoteHandler {
	return &QuoteHandler{uc: uc}
}

func (h *QuoteHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/quote", h.quote)
}

func (h *QuoteHandler) quote(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	lines := make([]usecase.QuoteLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, usecase.QuoteLineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	out, err := h.uc.Quote(c.Request().Context(), usecase.QuoteInput{
		Currency: req.Currency,
		StoreID:  req.StoreID,
		Lines:    lines,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
