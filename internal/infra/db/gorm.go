package db

import (
	"fmt"

	"cartline/internal/config"
	"cartline/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	// 一意制約違反を gorm.ErrDuplicatedKey で受け取る
	gcfg := &gorm.Config{TranslateError: true}
	if cfg.GoEnv != "dev" {
		gcfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	return gorm.Open(postgres.Open(DSN(cfg)), gcfg)
}

// DATABASE_URL があれば最優先で使う
func DSN(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresSSLMode,
	)
}

// 1ユーザーにつきACTIVEカートは1つ（部分インデックスはタグで書けないのでSQLで作る）
const activeCartIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_one_active_per_user ON carts (user_id) WHERE status = 'ACTIVE'`

// テーブル作成
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Price{},
		&model.Deal{},
		&model.Stock{},
		&model.StockAdjustment{},
		&model.Cart{},
		&model.CartItem{},
	); err != nil {
		return err
	}
	return ensureActiveCartIndex(gormDB).Error
}

func ensureActiveCartIndex(gormDB *gorm.DB) *gorm.DB {
	return gormDB.Exec(activeCartIndexSQL)
}
