package model

import (
	"time"

	"gorm.io/gorm"
)

// Prices/Stocks/Dealsはリポジトリで読み込んだ状態で渡される。
// Dealsは読み込み時点で有効なものだけ。
type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	Prices      []Price        `json:"prices"`
	Stocks      []Stock        `json:"stocks"`
	Deals       []Deal         `json:"deals"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// 在庫（店舗単位）
type Stock struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID         int64     `gorm:"not null;uniqueIndex:idx_stock_product_store" json:"product_id"`
	StoreID           StoreID   `gorm:"type:bigint;uniqueIndex:idx_stock_product_store" json:"store_id"`
	AvailableQuantity int64     `gorm:"not null;default:0" json:"available_quantity"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 在庫調整の履歴
type StockAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	StoreID     StoreID   `gorm:"type:bigint" json:"store_id"`
	AdminUserID int64     `gorm:"not null;index" json:"admin_user_id"`
	Delta       int64     `gorm:"not null" json:"delta"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
