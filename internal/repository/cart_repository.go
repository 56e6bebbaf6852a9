package repository

import (
	"context"

	"cartline/internal/domain/model"
)

type CartRepository interface {
	// 無ければcurrency/storeで作る
	GetOrCreateActiveByUserID(ctx context.Context, userID int64, currency string, store model.StoreID) (model.Cart, error)
	FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error)
	UpdateContext(ctx context.Context, cartID int64, currency string, store model.StoreID) error
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	Clear(ctx context.Context, cartID int64) error
}

type CartItemRepository interface {
	// Cartを付けて返す（Productは付けない）
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一商品はプラス。metaがnilなら既存のmetaを残す
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, meta map[string]interface{}) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)
}
