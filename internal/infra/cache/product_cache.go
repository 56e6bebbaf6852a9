package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"cartline/internal/domain/model"
	repo "cartline/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrMiss はキャッシュに無いことを表す
var ErrMiss = errors.New("cache miss")

// Redisへの最小限の操作
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ProductCache は商品スナップショット（価格・在庫・値引き込み）の読み込みキャッシュ。
// Redisが落ちていてもDBにフォールバックする。
type ProductCache struct {
	next  repo.ProductRepository
	store Store
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewProductCache(next repo.ProductRepository, store Store, ttl time.Duration, log *zap.Logger) *ProductCache {
	return &ProductCache{next: next, store: store, ttl: ttl, log: log, now: time.Now}
}

func Key(productID int64) string {
	return "product:snapshot:" + strconv.FormatInt(productID, 10)
}

func (c *ProductCache) GetWithPricesAndStock(ctx context.Context, productID int64) (model.Product, error) {
	key := Key(productID)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var p model.Product
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			// TTL中に期限切れになった値引きは落とす
			p.Deals = activeDeals(p.Deals, c.now())
			return p, nil
		}
		c.log.Warn("product cache: broken payload", zap.String("key", key))
	case !errors.Is(err, ErrMiss):
		c.log.Warn("product cache: get failed", zap.String("key", key), zap.Error(err))
	}

	p, err := c.next.GetWithPricesAndStock(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}

	if b, jerr := json.Marshal(p); jerr == nil {
		if serr := c.store.Set(ctx, key, b, c.ttl); serr != nil {
			c.log.Warn("product cache: set failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return p, nil
}

func activeDeals(deals []model.Deal, now time.Time) []model.Deal {
	out := deals[:0]
	for _, d := range deals {
		if d.ActiveAt(now) {
			out = append(out, d)
		}
	}
	return out
}

// 見積もりはまとめてDBから読む
func (c *ProductCache) FindByIDs(ctx context.Context, productIDs []int64) (map[int64]model.Product, error) {
	return c.next.FindByIDs(ctx, productIDs)
}

// 価格・在庫の更新後に呼ぶ
func (c *ProductCache) Invalidate(ctx context.Context, productID int64) {
	if err := c.store.Del(ctx, Key(productID)); err != nil {
		c.log.Warn("product cache: invalidate failed", zap.Int64("product_id", productID), zap.Error(err))
	}
}

// RedisStore はgo-redisのクライアントをStoreにする
type RedisStore struct {
	client *redis.Client
}

// "redis://..." 形式でなければそのままAddrとして使う
func NewRedisStore(addr string) *RedisStore {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
			PoolSize:     10,
		}
	}
	return &RedisStore{client: redis.NewClient(opts)}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	return b, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var (
	_ repo.ProductRepository = (*ProductCache)(nil)
	_ Store                  = (*RedisStore)(nil)
)
