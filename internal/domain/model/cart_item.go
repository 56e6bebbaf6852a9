package model

import (
	"time"

	"gorm.io/datatypes"
)

// カートの明細
// Product がnilなら商品は削除済み（または参照不可）。
type CartItem struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64             `gorm:"not null;uniqueIndex:idx_cart_item_cart_product" json:"cart_id"`
	ProductID int64             `gorm:"not null;uniqueIndex:idx_cart_item_cart_product" json:"product_id"`
	Quantity  int64             `gorm:"not null" json:"quantity"`
	Meta      datatypes.JSONMap `gorm:"type:jsonb" json:"meta,omitempty"`
	Cart      *Cart             `gorm:"foreignKey:CartID" json:"-"`
	Product   *Product          `gorm:"-" json:"-"`
	CreatedAt time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// ActivePrice は(currency, store)に完全一致する価格を返す。
func (i CartItem) ActivePrice(currency string, store StoreID) (Price, error) {
	if i.Product == nil {
		return Price{}, ErrInvalidProduct
	}

	price, ok := FindPrice(*i.Product, currency, store)
	if !ok {
		return Price{}, ErrCorruptPricing
	}
	return price, nil
}

// 価格を決めて、数量を渡すだけ
func (i CartItem) CalculateTotals(currency string, store StoreID) (Totals, error) {
	price, err := i.ActivePrice(currency, store)
	if err != nil {
		return Totals{}, err
	}
	return price.CalculateTotals(i.Quantity, i.Product.Deals), nil
}

// Totals はカートの通貨・店舗で毎回計算する（キャッシュしない）。
func (i CartItem) Totals() (Totals, error) {
	if i.Cart == nil {
		return Totals{}, ErrMissingCart
	}
	return i.CalculateTotals(i.Cart.Currency, i.Cart.StoreID)
}

// 在庫→価格の順にチェック。どちらかNGならエラー。
func (i CartItem) ValidateContents(currency string, store StoreID) (bool, error) {
	if i.Product == nil {
		return false, ErrInvalidProduct
	}

	if err := ValidateStock(*i.Product, i.Quantity, store); err != nil {
		return false, err
	}
	if err := ValidatePricing(*i.Product, currency, store); err != nil {
		return false, err
	}

	return true, nil
}

// FindPrice は最初に一致した価格を返す。
func FindPrice(p Product, currency string, store StoreID) (Price, bool) {
	for _, pr := range p.Prices {
		if pr.Currency == currency && pr.StoreID.Equal(store) {
			return pr, true
		}
	}
	return Price{}, false
}

func FindStock(p Product, store StoreID) (Stock, bool) {
	for _, s := range p.Stocks {
		if s.StoreID.Equal(store) {
			return s, true
		}
	}
	return Stock{}, false
}

// ValidateStock は在庫レコードが無い場合は在庫0として扱う。
func ValidateStock(p Product, quantity int64, store StoreID) error {
	var available int64
	if s, ok := FindStock(p, store); ok {
		available = s.AvailableQuantity
	}

	if available < quantity {
		return ErrInvalidQuantity
	}
	return nil
}

func ValidatePricing(p Product, currency string, store StoreID) error {
	if _, ok := FindPrice(p, currency, store); !ok {
		return ErrCorruptPricing
	}
	return nil
}
