package model

import (
	"strings"
	"time"
)

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
	CartStatusAbandoned  CartStatus = "ABANDONED"
)

// 1ユーザーにつきACTIVEは1つ
// 価格は Currency と StoreID の組み合わせで決まる。
type Cart struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	Status    CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Currency  string     `gorm:"type:varchar(3);not null" json:"currency"`
	StoreID   StoreID    `gorm:"type:bigint;index" json:"store_id"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 通貨コードは大文字3桁で比較する
func NormalizeCurrency(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

func IsValidCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
