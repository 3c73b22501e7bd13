package postgresdb

import (
	"fmt"
	"strconv"

	"github.com/fazamuttaqien/ipap-financing/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DatabaseConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
	SSLMode      string
	TimeZone     string
}

func FromConfig(cfg *config.Config) *DatabaseConfig {
	port, err := strconv.Atoi(cfg.POSTGRES_PORT)
	if err != nil {
		port = 5432
	}

	return &DatabaseConfig{
		Host:         cfg.POSTGRES_HOST,
		Port:         port,
		Username:     cfg.POSTGRES_USER,
		Password:     cfg.POSTGRES_PASSWORD,
		DatabaseName: cfg.POSTGRES_DBNAME,
		SSLMode:      cfg.POSTGRES_SSLMODE,
		TimeZone:     "UTC",
	}
}

// BuildDSN renders the key/value DSN understood by pgx.
func (c *DatabaseConfig) BuildDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host, c.Username, c.Password, c.DatabaseName, c.Port, c.SSLMode, c.TimeZone,
	)
}

func (c *DatabaseConfig) Dialector() gorm.Dialector {
	return postgres.New(postgres.Config{
		DSN:                  c.BuildDSN(),
		PreferSimpleProtocol: true,
	})
}
