// Package repo implements the persistence layer for the coin economy and
// chat engine, backed by GORM. This file bootstraps the database handle for
// the supported drivers and applies schema migrations.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-companion-backend/internal/config"
	"github.com/tbourn/go-companion-backend/internal/domain"
)

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// Open connects to the configured driver, instruments the handle with
// OpenTelemetry and tunes the connection pool.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return OpenSQLite(cfg.Path)
	case config.DriverPostgres:
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	case config.DriverMySQL:
		db, err = gorm.Open(mysql.Open(cfg.DSN), gcfg)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := instrument(db); err != nil {
		return nil, err
	}
	tunePool(db, 25)
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database file with WAL, foreign
// keys and a busy timeout enabled on every connection.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if the parent directory is missing instead of surfacing
	// sqlite's "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := instrument(db); err != nil {
		return nil, err
	}
	tunePool(db, 10)
	return db, nil
}

// SQLiteDSN appends the connection pragmas to a sqlite path or URI.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

func instrument(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

func tunePool(db *gorm.DB, maxOpen int) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
}

// AutoMigrate creates or updates every table the engine owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Account{},
		&domain.LedgerEntry{},
		&domain.Character{},
		&domain.Entitlement{},
		&domain.Gift{},
		&domain.GiftEvent{},
		&domain.ChatSession{},
		&domain.ChatMessage{},
		&domain.Moment{},
		&domain.MomentLike{},
		&domain.MomentComment{},
		&domain.Idempotency{},
	)
}
