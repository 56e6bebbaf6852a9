package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cartline/internal/domain/model"
	repo "cartline/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 価格・在庫を変えたらスナップショットを捨てる
type ProductInvalidator interface {
	Invalidate(ctx context.Context, productID int64)
}

type ProductUsecase struct {
	productRepo repo.ProductRepository
	catalogRepo repo.CatalogRepository
	invalidator ProductInvalidator
	log         *zap.Logger
}

// DI（invalidatorはキャッシュ無しならnil）
func NewProductUsecase(
	productRepo repo.ProductRepository,
	catalogRepo repo.CatalogRepository,
	invalidator ProductInvalidator,
	log *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		catalogRepo: catalogRepo,
		invalidator: invalidator,
		log:         log,
	}
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.GetWithPricesAndStock(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, dbError(u.log, "product.get", err)
	}

	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

type AdminUpsertPriceInput struct {
	Currency string
	StoreID  model.StoreID
	Amount   string
}

func (u *ProductUsecase) AdminUpsertPrice(ctx context.Context, adminUserID int64, productID int64, in AdminUpsertPriceInput) (model.Price, error) {
	if adminUserID <= 0 {
		return model.Price{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Price{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	currency := model.NormalizeCurrency(in.Currency)
	if !model.IsValidCurrency(currency) {
		return model.Price{}, NewHTTPError(http.StatusBadRequest, "invalid currency")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return model.Price{}, NewHTTPError(http.StatusBadRequest, "invalid amount")
	}
	if amount.IsNegative() {
		return model.Price{}, NewHTTPError(http.StatusBadRequest, "amount must be >= 0")
	}

	price, err := u.catalogRepo.UpsertPrice(ctx, model.Price{
		ProductID: productID,
		Currency:  currency,
		StoreID:   in.StoreID,
		Amount:    amount.Round(2),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Price{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Price{}, dbError(u.log, "catalog.upsert_price", err)
	}

	u.invalidate(ctx, productID)
	u.log.Info("price updated",
		zap.Int64("admin_user_id", adminUserID),
		zap.Int64("product_id", productID),
		zap.String("currency", currency),
		zap.Stringer("store_id", in.StoreID),
		zap.String("amount", price.Amount.StringFixed(2)))
	return price, nil
}

type AdminSetStockInput struct {
	StoreID model.StoreID
	Stock   int64
	Reason  string
}

func (u *ProductUsecase) AdminSetStock(ctx context.Context, adminUserID int64, productID int64, in AdminSetStockInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	err := u.catalogRepo.SetStockWithAdjustment(ctx, adminUserID, productID, in.StoreID, in.Stock, reason)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(u.log, "catalog.set_stock", err)
	}

	u.invalidate(ctx, productID)
	return nil
}

func (u *ProductUsecase) invalidate(ctx context.Context, productID int64) {
	if u.invalidator != nil {
		u.invalidator.Invalidate(ctx, productID)
	}
}
