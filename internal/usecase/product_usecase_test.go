package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"cartline/internal/domain/model"
	repo "cartline/internal/repository"
	"cartline/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type invalidatorSpy struct {
	ids []int64
}

func (s *invalidatorSpy) Invalidate(ctx context.Context, productID int64) {
	s.ids = append(s.ids, productID)
}

func TestProductUsecase_GetProductDetail(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, new(CatalogRepoMock), nil, zap.NewNop())

	hidden := coffee()
	hidden.ID = 2
	hidden.IsActive = false

	products.On("GetWithPricesAndStock", mock.Anything, int64(100)).Return(coffee(), nil)
	products.On("GetWithPricesAndStock", mock.Anything, int64(2)).Return(hidden, nil)
	products.On("GetWithPricesAndStock", mock.Anything, int64(3)).Return(model.Product{}, repo.ErrNotFound)

	p, err := uc.GetProductDetail(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, p.Prices, 1)

	_, err = uc.GetProductDetail(context.Background(), 2)
	assertHTTPError(t, err, http.StatusNotFound, "not found")

	_, err = uc.GetProductDetail(context.Background(), 3)
	assertHTTPError(t, err, http.StatusNotFound, "not found")

	_, err = uc.GetProductDetail(context.Background(), 0)
	assertHTTPError(t, err, http.StatusBadRequest, "invalid product id")
}

func TestProductUsecase_AdminUpsertPrice_Validation(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProductRepoMock), new(CatalogRepoMock), nil, zap.NewNop())
	ctx := context.Background()

	_, err := uc.AdminUpsertPrice(ctx, 0, 1, usecase.AdminUpsertPriceInput{Currency: "USD", Amount: "1"})
	assertHTTPError(t, err, http.StatusUnauthorized, "unauthorized")

	_, err = uc.AdminUpsertPrice(ctx, 1, 1, usecase.AdminUpsertPriceInput{Currency: "US", Amount: "1"})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid currency")

	_, err = uc.AdminUpsertPrice(ctx, 1, 1, usecase.AdminUpsertPriceInput{Currency: "USD", Amount: "abc"})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid amount")

	_, err = uc.AdminUpsertPrice(ctx, 1, 1, usecase.AdminUpsertPriceInput{Currency: "USD", Amount: "-1"})
	assertHTTPError(t, err, http.StatusBadRequest, "amount must be >= 0")
}

func TestProductUsecase_AdminUpsertPrice_Success(t *testing.T) {
	catalog := new(CatalogRepoMock)
	spy := &invalidatorSpy{}
	uc := usecase.NewProductUsecase(new(ProductRepoMock), catalog, spy, zap.NewNop())

	catalog.On("UpsertPrice", mock.Anything, mock.MatchedBy(func(p model.Price) bool {
		return p.ProductID == 100 && p.Currency == "EUR" && p.StoreID.Equal(model.StoreOf(0)) && p.Amount.Equal(decimal.RequireFromString("9.99"))
	})).Return(model.Price{ID: 5, ProductID: 100, Currency: "EUR", StoreID: model.StoreOf(0), Amount: decimal.RequireFromString("9.99")}, nil)

	price, err := uc.AdminUpsertPrice(context.Background(), 1, 100, usecase.AdminUpsertPriceInput{
		Currency: " eur ",
		StoreID:  model.StoreOf(0),
		Amount:   "9.99",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), price.ID)
	assert.Equal(t, []int64{100}, spy.ids)

	catalog.AssertExpectations(t)
}

func TestProductUsecase_AdminUpsertPrice_ProductNotFound(t *testing.T) {
	catalog := new(CatalogRepoMock)
	uc := usecase.NewProductUsecase(new(ProductRepoMock), catalog, nil, zap.NewNop())

	catalog.On("UpsertPrice", mock.Anything, mock.Anything).Return(model.Price{}, repo.ErrNotFound)

	_, err := uc.AdminUpsertPrice(context.Background(), 1, 404, usecase.AdminUpsertPriceInput{Currency: "USD", Amount: "1"})
	assertHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestProductUsecase_AdminSetStock(t *testing.T) {
	catalog := new(CatalogRepoMock)
	spy := &invalidatorSpy{}
	uc := usecase.NewProductUsecase(new(ProductRepoMock), catalog, spy, zap.NewNop())
	ctx := context.Background()

	err := uc.AdminSetStock(ctx, 1, 100, usecase.AdminSetStockInput{Stock: -1, Reason: "x"})
	assertHTTPError(t, err, http.StatusBadRequest, "stock must be >= 0")

	err = uc.AdminSetStock(ctx, 1, 100, usecase.AdminSetStockInput{Stock: 1, Reason: "  "})
	assertHTTPError(t, err, http.StatusBadRequest, "reason required")

	catalog.On("SetStockWithAdjustment", mock.Anything, int64(1), int64(100), model.NoStore(), int64(12), "restock").Return(nil)

	err = uc.AdminSetStock(ctx, 1, 100, usecase.AdminSetStockInput{StoreID: model.NoStore(), Stock: 12, Reason: " restock "})
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, spy.ids)
	catalog.AssertExpectations(t)
}
