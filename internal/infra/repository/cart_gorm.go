package repository

import (
	"context"
	"errors"
	"time"

	"cartline/internal/domain/model"
	repo "cartline/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db, now: time.Now}
}

// 明細を変えたら親カートのupdated_atも進める（放置カートの判定に使う）
func touchCart(tx *gorm.DB, cartID int64, now time.Time) *gorm.DB {
	return tx.Model(&model.Cart{}).Where("id = ?", cartID).Update("updated_at", now)
}

// ACTIVEカートの一意インデックス違反か
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// ユーザーのACTIVEカートを取得し、無ければ作成
// 同時に作られた場合は一意インデックス違反になるので、tx の外で取り直す。
func (r *CartGormRepository) GetOrCreateActiveByUserID(ctx context.Context, userID int64, currency string, store model.StoreID) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
			Order("id desc").
			First(&cart).Error

		if findErr == nil {
			return nil
		}
		if !isNotFound(findErr) {
			return findErr
		}

		// 無ければ作る
		now := r.now()
		cart = model.Cart{
			UserID:    userID,
			Status:    model.CartStatusActive,
			Currency:  currency,
			StoreID:   store,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Create(&cart).Error
	})

	if isDuplicate(err) {
		return r.FindActiveByUserID(ctx, userID)
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// ユーザーのACTIVEカートを取得
func (r *CartGormRepository) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.CartStatusActive).
		Order("id desc").
		First(&cart).Error

	if isNotFound(err) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// 通貨・店舗を切り替える
func (r *CartGormRepository) UpdateContext(ctx context.Context, cartID int64, currency string, store model.StoreID) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"currency": currency,
			"store_id": store,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// carts.statusを更新
func (r *CartGormRepository) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 指定カートの明細を全削除
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart model.Cart
		if err := tx.Where("id = ?", cartID).First(&cart).Error; err != nil {
			if isNotFound(err) {
				return repo.ErrNotFound
			}
			return err
		}

		// cart_itemsを全削除
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID, r.now()).Error
	})
}

// カート明細を一覧取得（Cart付き）
func (r *CartGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Preload("Cart").
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 同一商品は数量加算
func (r *CartGormRepository) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, meta map[string]interface{}) error {
	if addQty <= 0 {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			First(&item).Error

		if err == nil {
			// 既存ありだったら数量を増やす
			updates := map[string]interface{}{
				"quantity": item.Quantity + addQty,
			}
			if meta != nil {
				updates["meta"] = datatypes.JSONMap(meta)
			}

			res := tx.Model(&model.CartItem{}).
				Where("id = ?", item.ID).
				Updates(updates)

			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}
			return touchCart(tx, cartID, r.now()).Error
		}

		if !isNotFound(err) {
			return err
		}

		// 無い場合は新規作成
		now := r.now()
		newItem := model.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  addQty,
			Meta:      datatypes.JSONMap(meta),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := tx.Create(&newItem).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID, now).Error
	})
}

// 明細の数量を更新
func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartID, err := cartIDOfItem(tx, cartItemID)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.CartItem{}).
			Where("id = ?", cartItemID).
			Update("quantity", qty).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID, r.now()).Error
	})
}

// 明細を削除
func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartID, err := cartIDOfItem(tx, cartItemID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&model.CartItem{}, cartItemID).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID, r.now()).Error
	})
}

// 明細をロックして親カートIDを返す
func cartIDOfItem(tx *gorm.DB, cartItemID int64) (int64, error) {
	var item model.CartItem
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "cart_id").
		Where("id = ?", cartItemID).
		First(&item).Error
	if isNotFound(err) {
		return 0, repo.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return item.CartID, nil
}

// 明細を取得（Cart付き）
func (r *CartGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Preload("Cart").
		Where("id = ?", cartItemID).
		First(&item).Error

	if isNotFound(err) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// cartItemが、そのuserのカートに属しているかを判定
func (r *CartGormRepository) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Table("cart_items").
		Joins("join carts on carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", cartItemID, userID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}
