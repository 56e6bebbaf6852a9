package usecase_test

import (
	"context"
	"testing"

	"cartline/internal/domain/model"
	repo "cartline/internal/repository"
	"cartline/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateActiveByUserID(ctx context.Context, userID int64, currency string, store model.StoreID) (model.Cart, error) {
	args := m.Called(ctx, userID, currency, store)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) UpdateContext(ctx context.Context, cartID int64, currency string, store model.StoreID) error {
	args := m.Called(ctx, cartID, currency, store)
	return args.Error(0)
}

func (m *CartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	args := m.Called(ctx, cartID, status)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, meta map[string]interface{}) error {
	args := m.Called(ctx, cartID, productID, addQty, meta)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, cartItemID, userID)
	return args.Bool(0), args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) GetWithPricesAndStock(ctx context.Context, productID int64) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByIDs(ctx context.Context, productIDs []int64) (map[int64]model.Product, error) {
	args := m.Called(ctx, productIDs)
	ps, _ := args.Get(0).(map[int64]model.Product)
	return ps, args.Error(1)
}

type CatalogRepoMock struct{ mock.Mock }

func (m *CatalogRepoMock) UpsertPrice(ctx context.Context, price model.Price) (model.Price, error) {
	args := m.Called(ctx, price)
	p, _ := args.Get(0).(model.Price)
	return p, args.Error(1)
}

func (m *CatalogRepoMock) SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, store model.StoreID, newStock int64, reason string) error {
	args := m.Called(ctx, adminUserID, productID, store, newStock, reason)
	return args.Error(0)
}

// Txはそのまま同じmockを渡す
type fakeTxRepos struct {
	carts     *CartRepoMock
	cartItems *CartItemRepoMock
	products  *ProductRepoMock
}

func (r *fakeTxRepos) Carts() repo.CartRepository         { return r.carts }
func (r *fakeTxRepos) CartItems() repo.CartItemRepository { return r.cartItems }
func (r *fakeTxRepos) Products() repo.ProductRepository   { return r.products }

type fakeTxManager struct {
	repos *fakeTxRepos
	calls int
}

func (tm *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	tm.calls++
	return fn(tm.repos)
}

var (
	_ repo.CartRepository     = (*CartRepoMock)(nil)
	_ repo.CartItemRepository = (*CartItemRepoMock)(nil)
	_ repo.ProductRepository  = (*ProductRepoMock)(nil)
	_ repo.CatalogRepository  = (*CatalogRepoMock)(nil)
	_ repo.TransactionManager = (*fakeTxManager)(nil)
)

// =====================
// helper
// =====================

func assertHTTPError(t *testing.T, err error, status int, msg string) {
	t.Helper()

	he, ok := usecase.AsHTTPError(err)
	if !assert.True(t, ok, "expected HTTPError, got %v", err) {
		return
	}
	assert.Equal(t, status, he.Status)
	assert.Equal(t, msg, he.Message)
}

// USD/store=1 の価格10.00と在庫5
func coffee() model.Product {
	return model.Product{
		ID:       100,
		Name:     "Coffee",
		IsActive: true,
		Prices: []model.Price{
			{ID: 1, ProductID: 100, Currency: "USD", StoreID: model.StoreOf(1), Amount: decimal.NewFromInt(10)},
		},
		Stocks: []model.Stock{
			{ID: 1, ProductID: 100, StoreID: model.StoreOf(1), AvailableQuantity: 5},
		},
	}
}

func usdStore1Cart() model.Cart {
	return model.Cart{ID: 7, UserID: 1, Status: model.CartStatusActive, Currency: "USD", StoreID: model.StoreOf(1)}
}
