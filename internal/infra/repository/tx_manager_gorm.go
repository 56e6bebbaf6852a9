package repository

import (
	"context"

	repo "cartline/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	carts     repo.CartRepository
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
}

func (r *txReposGorm) Carts() repo.CartRepository         { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository { return r.cartItems }
func (r *txReposGorm) Products() repo.ProductRepository   { return r.products }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// repoはtxを持ったDBで作り直す（キャッシュは通さない）
		cartRepo := NewCartGormRepository(tx)
		r := &txReposGorm{
			carts:     cartRepo,
			cartItems: cartRepo,
			products:  NewProductGormRepository(tx),
		}
		return fn(r)
	})
}

var (
	_ repo.CartRepository     = (*CartGormRepository)(nil)
	_ repo.CartItemRepository = (*CartGormRepository)(nil)
	_ repo.ProductRepository  = (*ProductGormRepository)(nil)
	_ repo.CatalogRepository  = (*ProductGormRepository)(nil)
	_ repo.TransactionManager = (*TxManagerGorm)(nil)
)
