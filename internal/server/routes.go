package server

import (
	"net/http"

	"cartline/internal/config"
	"cartline/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録に必要なhandlerの束
type Handlers struct {
	Product      *handler.ProductHandler
	Quote        *handler.QuoteHandler
	Cart         *handler.CartHandler
	AdminProduct *handler.AdminProductHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// 公開
	h.Product.RegisterRoutes(e)
	h.Quote.RegisterRoutes(e)

	// ログイン必須
	h.Cart.RegisterRoutes(e, cfg)
	h.AdminProduct.RegisterRoutes(e, cfg)
}
