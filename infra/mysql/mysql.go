package mysqldb

import (
	"fmt"
	"strconv"

	"github.com/fazamuttaqien/ipap-financing/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type DatabaseConfig struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
	Charset      string
	ParseTime    bool
	Loc          string
}

// FromConfig builds the MySQL settings from the service configuration.
func FromConfig(cfg *config.Config) *DatabaseConfig {
	port, err := strconv.Atoi(cfg.MYSQL_PORT)
	if err != nil {
		port = 3306
	}

	return &DatabaseConfig{
		Host:         cfg.MYSQL_HOST,
		Port:         port,
		Username:     cfg.MYSQL_USER,
		Password:     cfg.MYSQL_PASSWORD,
		DatabaseName: cfg.MYSQL_DBNAME,
		Charset:      "utf8mb4",
		ParseTime:    true,
		Loc:          "UTC",
	}
}

// BuildDSN builds MySQL DSN (Data Source Name) from config
func (c *DatabaseConfig) BuildDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		c.Username, c.Password, c.Host, c.Port,
		c.DatabaseName, c.Charset, c.ParseTime, c.Loc,
	)
}

func (c *DatabaseConfig) Dialector() gorm.Dialector {
	return mysql.Open(c.BuildDSN())
}
