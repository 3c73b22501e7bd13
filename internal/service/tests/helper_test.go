package service_test

import (
	"fmt"
	"testing"

	"github.com/fazamuttaqien/ipap-financing/infra/database"
	"github.com/fazamuttaqien/ipap-financing/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := database.Connect(sqlite.Open(dsn), false)
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	return db
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
