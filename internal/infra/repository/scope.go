package repository

import (
	"errors"

	"cartline/internal/domain/model"

	"gorm.io/gorm"
)

// 店舗なしは「= 0」ではなく IS NULL で探す
func whereStore(tx *gorm.DB, column string, store model.StoreID) *gorm.DB {
	if id, ok := store.Get(); ok {
		return tx.Where(column+" = ?", id)
	}
	return tx.Where(column + " IS NULL")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
