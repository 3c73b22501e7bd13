package database_test

import (
	"context"
	"testing"

	"github.com/fazamuttaqien/ipap-financing/config"
	"github.com/fazamuttaqien/ipap-financing/infra/database"
	mysqldb "github.com/fazamuttaqien/ipap-financing/infra/mysql"
	postgresdb "github.com/fazamuttaqien/ipap-financing/infra/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		MYSQL_HOST:        "db.internal",
		MYSQL_PORT:        "3307",
		MYSQL_USER:        "ipap",
		MYSQL_PASSWORD:    "secret",
		MYSQL_DBNAME:      "financing",
		POSTGRES_HOST:     "pg.internal",
		POSTGRES_PORT:     "not-a-port",
		POSTGRES_USER:     "ipap",
		POSTGRES_PASSWORD: "secret",
		POSTGRES_DBNAME:   "financing",
		POSTGRES_SSLMODE:  "require",
		SQLITE_PATH:       "file::memory:",
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn := mysqldb.FromConfig(testConfig()).BuildDSN()
	assert.Equal(t, "ipap:secret@tcp(db.internal:3307)/financing?charset=utf8mb4&parseTime=true&loc=UTC", dsn)
}

func TestPostgresDSN_FallsBackToDefaultPort(t *testing.T) {
	dsn := postgresdb.FromConfig(testConfig()).BuildDSN()
	assert.Equal(t, "host=pg.internal user=ipap password=secret dbname=financing port=5432 sslmode=require TimeZone=UTC", dsn)
}

func TestDialector(t *testing.T) {
	cfg := testConfig()

	for driver, name := range map[string]string{
		"":                      "mysql",
		database.DriverMySQL:    "mysql",
		database.DriverPostgres: "postgres",
		database.DriverSQLite:   "sqlite",
	} {
		cfg.DB_DRIVER = driver
		dialector, err := database.Dialector(cfg)
		require.NoError(t, err)
		assert.Equal(t, name, dialector.Name())
	}

	cfg.DB_DRIVER = "oracle"
	_, err := database.Dialector(cfg)
	assert.Error(t, err)
}

func TestOpen_SQLite(t *testing.T) {
	cfg := testConfig()
	cfg.DB_DRIVER = database.DriverSQLite

	db, err := database.Open(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, database.Ping(ctx, db))
	assert.Contains(t, database.GetStats(db), "open_connections")
	assert.NoError(t, database.Close(ctx, db))
}
