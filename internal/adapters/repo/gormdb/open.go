package gormdb

import (
	"fmt"

	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/phenrril/booklibrary/internal/config"
	"github.com/phenrril/booklibrary/internal/logging"
)

// Open picks the dialector from cfg.DBDriver.
func Open(cfg config.Config) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres selected but DSN empty")
		}
		dial = postgres.Open(cfg.DSN)
	case "sqlite":
		dial = sqlite.Open(sqliteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logging.NewGormLogger(zlog.Logger)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if cfg.DBDriver == "sqlite" {
		// a single writer keeps sqlite from returning SQLITE_BUSY mid-commit
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func sqliteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return "file::memory:?cache=shared"
	}
	return "file:" + path + "?_foreign_keys=on"
}
