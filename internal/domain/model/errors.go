package model

import "errors"

var (
	// 商品が削除済み・参照できない
	ErrInvalidProduct = errors.New("invalid cart item product")
	// (currency, store)に一致する価格がない
	ErrCorruptPricing = errors.New("corrupt cart pricing")
	// 在庫が足りない
	ErrInvalidQuantity = errors.New("invalid cart item quantity")
	// Totals()はカートが読み込まれていないと計算できない
	ErrMissingCart = errors.New("cart item has no cart loaded")
)
