package cache_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cartline/internal/domain/model"
	"cartline/internal/infra/cache"
	repo "cartline/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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

// メモリ上のStore
type memStore struct {
	data   map[string][]byte
	getErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	b, ok := s.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return b, nil
}

func (s *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.data[key] = value
	return nil
}

func (s *memStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func snapshot() model.Product {
	return model.Product{
		ID:       5,
		Name:     "Tea",
		IsActive: true,
		Prices: []model.Price{
			{ID: 1, ProductID: 5, Currency: "USD", StoreID: model.NoStore(), Amount: decimal.RequireFromString("3.20")},
			{ID: 2, ProductID: 5, Currency: "USD", StoreID: model.StoreOf(0), Amount: decimal.RequireFromString("3.10")},
		},
		Stocks: []model.Stock{{ID: 1, ProductID: 5, StoreID: model.NoStore(), AvailableQuantity: 4}},
	}
}

func TestProductCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	next := new(ProductRepoMock)
	store := newMemStore()
	c := cache.NewProductCache(next, store, time.Minute, zap.NewNop())

	next.On("GetWithPricesAndStock", mock.Anything, int64(5)).Return(snapshot(), nil).Once()

	first, err := c.GetWithPricesAndStock(ctx, 5)
	require.NoError(t, err)
	assert.Contains(t, store.data, cache.Key(5))

	// 2回目はキャッシュから（店舗なし/店舗0の区別も保たれる）
	second, err := c.GetWithPricesAndStock(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, second.Prices[0].StoreID.Equal(model.NoStore()))
	assert.True(t, second.Prices[1].StoreID.Equal(model.StoreOf(0)))
	assert.Equal(t, "3.2", second.Prices[0].Amount.String())
	assert.NoError(t, model.ValidateStock(second, 4, model.NoStore()))

	next.AssertExpectations(t)
}

func TestProductCache_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	next := new(ProductRepoMock)
	store := newMemStore()
	c := cache.NewProductCache(next, store, time.Minute, zap.NewNop())

	next.On("GetWithPricesAndStock", mock.Anything, int64(9)).Return(model.Product{}, repo.ErrNotFound)

	_, err := c.GetWithPricesAndStock(ctx, 9)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Empty(t, store.data)
}

func TestProductCache_StoreErrorFallsBackToRepo(t *testing.T) {
	ctx := context.Background()
	next := new(ProductRepoMock)
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	c := cache.NewProductCache(next, store, time.Minute, zap.NewNop())

	next.On("GetWithPricesAndStock", mock.Anything, int64(5)).Return(snapshot(), nil)

	p, err := c.GetWithPricesAndStock(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)
}

func TestProductCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	next := new(ProductRepoMock)
	store := newMemStore()
	c := cache.NewProductCache(next, store, time.Minute, zap.NewNop())

	next.On("GetWithPricesAndStock", mock.Anything, int64(5)).Return(snapshot(), nil).Twice()

	_, err := c.GetWithPricesAndStock(ctx, 5)
	require.NoError(t, err)

	c.Invalidate(ctx, 5)
	assert.NotContains(t, store.data, cache.Key(5))

	_, err = c.GetWithPricesAndStock(ctx, 5)
	require.NoError(t, err)
	next.AssertExpectations(t)
}

// キャッシュ中に終わった値引きは返さない
func TestProductCache_DropsExpiredDealsOnHit(t *testing.T) {
	ctx := context.Background()
	next := new(ProductRepoMock)
	store := newMemStore()
	c := cache.NewProductCache(next, store, time.Minute, zap.NewNop())

	past := time.Now().Add(-time.Hour)
	p := snapshot()
	p.Deals = []model.Deal{
		{ID: 1, ProductID: 5, Kind: model.DealKindPercent, Value: decimal.NewFromInt(10), MinQuantity: 1, EndsAt: &past},
		{ID: 2, ProductID: 5, Kind: model.DealKindFixed, Value: decimal.NewFromInt(1), MinQuantity: 1},
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	store.data[cache.Key(5)] = raw

	got, err := c.GetWithPricesAndStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got.Deals, 1)
	assert.Equal(t, int64(2), got.Deals[0].ID)
	next.AssertNotCalled(t, "GetWithPricesAndStock", mock.Anything, mock.Anything)
}
