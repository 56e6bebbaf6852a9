package repository

import (
	"context"
	"time"

	"cartline/internal/domain/model"
	repo "cartline/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db, now: time.Now}
}

// 価格・在庫・有効な値引きを全部読み込む
func (r *ProductGormRepository) withAssociations(tx *gorm.DB) *gorm.DB {
	now := r.now()

	return tx.
		Preload("Prices", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Stocks", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Deals", func(db *gorm.DB) *gorm.DB {
			return db.
				Where("starts_at IS NULL OR starts_at <= ?", now).
				Where("ends_at IS NULL OR ends_at > ?", now).
				Order("id asc")
		})
}

// IDで商品を取得（削除済みはErrNotFound）
func (r *ProductGormRepository) GetWithPricesAndStock(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product

	err := r.withAssociations(r.db.WithContext(ctx)).First(&p, productID).Error
	if isNotFound(err) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// まとめて取得（見積もり用）
func (r *ProductGormRepository) FindByIDs(ctx context.Context, productIDs []int64) (map[int64]model.Product, error) {
	out := make(map[int64]model.Product, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var products []model.Product
	if err := r.withAssociations(r.db.WithContext(ctx)).
		Where("id IN ?", productIDs).
		Find(&products).Error; err != nil {
		return nil, err
	}

	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// 価格の作成・更新
func (r *ProductGormRepository) UpsertPrice(ctx context.Context, price model.Price) (model.Price, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Product
		if err := tx.Select("id").First(&p, price.ProductID).Error; err != nil {
			if isNotFound(err) {
				return repo.ErrNotFound
			}
			return err
		}

		var existing model.Price
		findErr := whereStore(
			tx.Where("product_id = ? AND currency = ?", price.ProductID, price.Currency),
			"store_id", price.StoreID,
		).First(&existing).Error

		if findErr == nil {
			res := tx.Model(&model.Price{}).
				Where("id = ?", existing.ID).
				Update("amount", price.Amount)
			if res.Error != nil {
				return res.Error
			}
			existing.Amount = price.Amount
			price = existing
			return nil
		}
		if !isNotFound(findErr) {
			return findErr
		}

		// 無い場合は新規作成
		price.ID = 0
		return tx.Create(&price).Error
	})
	if err != nil {
		return model.Price{}, err
	}
	return price, nil
}

// 在庫を「現在値」に更新し、調整履歴も残す
func (r *ProductGormRepository) SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, store model.StoreID, newStock int64, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Product
		if err := tx.Select("id").First(&p, productID).Error; err != nil {
			if isNotFound(err) {
				return repo.ErrNotFound
			}
			return err
		}

		// 現在の在庫を取得（無ければ0から）
		var current int64
		var s model.Stock
		findErr := whereStore(tx.Where("product_id = ?", productID), "store_id", store).First(&s).Error

		switch {
		case findErr == nil:
			current = s.AvailableQuantity
			res := tx.Model(&model.Stock{}).
				Where("id = ?", s.ID).
				Update("available_quantity", newStock)
			if res.Error != nil {
				return res.Error
			}
		case isNotFound(findErr):
			if err := tx.Create(&model.Stock{
				ProductID:         productID,
				StoreID:           store,
				AvailableQuantity: newStock,
			}).Error; err != nil {
				return err
			}
		default:
			return findErr
		}

		// adjustmentsを作成
		adj := model.StockAdjustment{
			ProductID:   productID,
			StoreID:     store,
			AdminUserID: adminUserID,
			Delta:       newStock - current,
			Reason:      reason,
		}
		return tx.Create(&adj).Error
	})
}
