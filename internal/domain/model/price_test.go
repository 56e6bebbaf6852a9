package model_test

import (
	"testing"
	"time"

	"cartline/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPrice_CalculateTotals_NoDeals(t *testing.T) {
	p := model.Price{Currency: "USD", Amount: decimal.RequireFromString("19.99")}

	got := p.CalculateTotals(3, nil)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, int64(3), got.Quantity)
	assert.Equal(t, "59.97", got.Subtotal.String())
	assert.True(t, got.Discount.IsZero())
	assert.Equal(t, "59.97", got.Total.String())
	assert.Nil(t, got.DealID)
}

// 一番大きい値引きだけ
func TestPrice_CalculateTotals_BestDealWins(t *testing.T) {
	p := model.Price{Currency: "USD", Amount: decimal.NewFromInt(10)}
	deals := []model.Deal{
		{ID: 1, Kind: model.DealKindPercent, Value: decimal.NewFromInt(10), MinQuantity: 1}, // 5
		{ID: 2, Kind: model.DealKindFixed, Value: decimal.NewFromInt(2), MinQuantity: 1},    // 10
		{ID: 3, Kind: model.DealKindPercent, Value: decimal.NewFromInt(50), MinQuantity: 6}, // 対象外
	}

	got := p.CalculateTotals(5, deals)
	assert.Equal(t, "50", got.Subtotal.String())
	assert.Equal(t, "10", got.Discount.String())
	assert.Equal(t, "40", got.Total.String())
	if assert.NotNil(t, got.DealID) {
		assert.Equal(t, int64(2), *got.DealID)
	}
}

func TestPrice_CalculateTotals_DiscountCappedAtSubtotal(t *testing.T) {
	p := model.Price{Currency: "USD", Amount: decimal.NewFromInt(3)}
	deals := []model.Deal{{ID: 1, Kind: model.DealKindFixed, Value: decimal.NewFromInt(5), MinQuantity: 1}}

	got := p.CalculateTotals(2, deals)
	assert.Equal(t, "6", got.Discount.String())
	assert.True(t, got.Total.IsZero())
}

func TestPrice_CalculateTotals_Rounding(t *testing.T) {
	p := model.Price{Currency: "USD", Amount: decimal.RequireFromString("0.99")}
	deals := []model.Deal{{ID: 1, Kind: model.DealKindPercent, Value: decimal.RequireFromString("15"), MinQuantity: 1}}

	// 2.97 * 15% = 0.4455 -> 0.45
	got := p.CalculateTotals(3, deals)
	assert.Equal(t, "0.45", got.Discount.String())
	assert.Equal(t, "2.52", got.Total.String())
}

func TestPrice_CalculateTotals_ZeroQuantity(t *testing.T) {
	p := model.Price{Currency: "USD", Amount: decimal.NewFromInt(10)}

	got := p.CalculateTotals(0, nil)
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestDeal_ActiveAt(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	assert.True(t, model.Deal{}.ActiveAt(now))
	assert.True(t, model.Deal{StartsAt: &before, EndsAt: &after}.ActiveAt(now))
	assert.False(t, model.Deal{StartsAt: &after}.ActiveAt(now))
	assert.False(t, model.Deal{EndsAt: &before}.ActiveAt(now))
	assert.False(t, model.Deal{EndsAt: &now}.ActiveAt(now))
}
