package handler

import (
	"net/http"
	"strconv"

	"cartline/internal/config"
	"cartline/internal/domain/model"
	"cartline/internal/middleware"
	"cartline/internal/usecase"

	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Message string `json:"message"`
}

// amount は "12.50" のような文字列（小数誤差を避ける）
type PriceUpsertRequest struct {
	Currency string        `json:"currency"`
	StoreID  model.StoreID `json:"store_id"`
	Amount   string        `json:"amount"`
}

// 在庫更新の入力です。
type StockUpdateRequest struct {
	StoreID model.StoreID `json:"store_id"`
	Stock   int64         `json:"stock"`
	Reason  string        `json:"reason"`
}

// /admin/prices と /admin/stocks をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/admin")

	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.PUT("/prices/:product_id", h.upsertPrice)
	admin.PUT("/stocks/:product_id", h.updateStock)
}

func (h *AdminProductHandler) upsertPrice(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	var req PriceUpsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	price, err := h.uc.AdminUpsertPrice(c.Request().Context(), adminID, productID, usecase.AdminUpsertPriceInput{
		Currency: req.Currency,
		StoreID:  req.StoreID,
		Amount:   req.Amount,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, price)
}

func (h *AdminProductHandler) updateStock(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
	}

	var req StockUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.AdminSetStock(c.Request().Context(), adminID, productID, usecase.AdminSetStockInput{
		StoreID: req.StoreID,
		Stock:   req.Stock,
		Reason:  req.Reason,
	}); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "stock updated"})
}
