package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 通貨・店舗ごとの価格。
// 明細の合計計算（値引き込み）はPriceが持つ。
type Price struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64           `gorm:"not null;uniqueIndex:idx_price_product_currency_store" json:"product_id"`
	Currency  string          `gorm:"type:varchar(3);not null;uniqueIndex:idx_price_product_currency_store" json:"currency"`
	StoreID   StoreID         `gorm:"type:bigint;uniqueIndex:idx_price_product_currency_store" json:"store_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type DealKind string

const (
	DealKindPercent DealKind = "PERCENT"
	DealKindFixed   DealKind = "FIXED" // 1個あたりの値引き額
)

// 商品の値引き。StartsAt/EndsAtがnilなら期限なし。
type Deal struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64           `gorm:"not null;index" json:"product_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Kind        DealKind        `gorm:"type:varchar(20);not null" json:"kind"`
	Value       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"value"`
	MinQuantity int64           `gorm:"not null;default:1" json:"min_quantity"`
	StartsAt    *time.Time      `json:"starts_at,omitempty"`
	EndsAt      *time.Time      `json:"ends_at,omitempty"`
}

func (d Deal) ActiveAt(now time.Time) bool {
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && !now.Before(*d.EndsAt) {
		return false
	}
	return true
}

// 明細の合計
type Totals struct {
	Currency  string          `json:"currency"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	DealID    *int64          `json:"deal_id,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// CalculateTotals はquantity分の小計と値引きを計算する。
// 値引きは一番大きいDealを1つだけ適用する（併用なし）。
func (p Price) CalculateTotals(quantity int64, deals []Deal) Totals {
	t := Totals{
		Currency:  p.Currency,
		UnitPrice: p.Amount.Round(2),
		Quantity:  quantity,
		Subtotal:  decimal.Zero,
		Discount:  decimal.Zero,
		Total:     decimal.Zero,
	}
	if quantity <= 0 {
		return t
	}

	qty := decimal.NewFromInt(quantity)
	subtotal := p.Amount.Mul(qty).Round(2)

	best := decimal.Zero
	var bestID *int64
	for i := range deals {
		d := deals[i]
		if d.MinQuantity > quantity {
			continue
		}

		var off decimal.Decimal
		switch d.Kind {
		case DealKindPercent:
			off = subtotal.Mul(d.Value).Div(hundred)
		case DealKindFixed:
			off = d.Value.Mul(qty)
		default:
			continue
		}
		off = off.Round(2)

		if off.GreaterThan(best) {
			best = off
			id := d.ID
			bestID = &id
		}
	}

	if best.GreaterThan(subtotal) {
		best = subtotal
	}

	t.Subtotal = subtotal
	t.Discount = best
	t.Total = subtotal.Sub(best)
	t.DealID = bestID
	return t
}
