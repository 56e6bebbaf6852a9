package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// 明細の変更は親カートのupdated_atを進める
func TestTouchCart(t *testing.T) {
	db := dryRunDB(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return touchCart(tx, 7, at)
	})

	assert.Contains(t, sql, `UPDATE "carts" SET "updated_at"=`)
	assert.Contains(t, sql, "2026-03-01 12:00:00")
	assert.Contains(t, sql, "WHERE id = 7")
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicate(fmt.Errorf("create cart: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, isDuplicate(gorm.ErrRecordNotFound))
	assert.False(t, isDuplicate(nil))
}

func TestNewCartGormRepository_UsesClock(t *testing.T) {
	r := NewCartGormRepository(dryRunDB(t))
	assert.NotNil(t, r.now)
	assert.WithinDuration(t, time.Now(), r.now(), time.Minute)
}
