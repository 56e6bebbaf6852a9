package repository

import (
	"cartline/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// 商品の読み込み（価格・在庫・有効な値引きまで全部入り）だけを約束。
type ProductRepository interface {
	GetWithPricesAndStock(ctx context.Context, productID int64) (model.Product, error)
	// 見つからないIDは結果に含めない
	FindByIDs(ctx context.Context, productIDs []int64) (map[int64]model.Product, error)
}

// 価格・在庫の管理用
type CatalogRepository interface {
	// (product, currency, store)で上書き
	UpsertPrice(ctx context.Context, price model.Price) (model.Price, error)
	// 在庫を「現在値」に更新し、調整履歴も残す
	SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, store model.StoreID, newStock int64, reason string) error
}
