package db

import (
	"testing"

	"cartline/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestDSN(t *testing.T) {
	cfg := config.Config{
		PostgresHost:     "db",
		PostgresPort:     5433,
		PostgresUser:     "app",
		PostgresPassword: "secret",
		PostgresDB:       "cart",
		PostgresSSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5433 user=app password=secret dbname=cart sslmode=disable", DSN(cfg))

	cfg.DatabaseURL = "postgres://u:p@h:5432/d"
	assert.Equal(t, "postgres://u:p@h:5432/d", DSN(cfg))
}

// ACTIVEカートはユーザーごとに1つだけ
func TestEnsureActiveCartIndex(t *testing.T) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test password=test dbname=test port=5432 sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return ensureActiveCartIndex(tx)
	})
	assert.Contains(t, sql, "CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_one_active_per_user")
	assert.Contains(t, sql, "ON carts (user_id) WHERE status = 'ACTIVE'")
}
