package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stock-tracker-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// portfolioTables in dependency order (children first).
var portfolioTables = []string{"portfolio_events", "sales", "holdings"}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		// unique violations surface as gorm.ErrDuplicatedKey on both drivers
		TranslateError: true,
		Logger: logger.New(&log.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// Open opens a GORM DB from a DATABASE_URL. postgres:// and postgresql:// DSNs
// use the Postgres driver with PreferSimpleProtocol so pooled connections
// (PgBouncer, Supabase) don't trip over cached prepared statements.
// sqlite:<path> opens an embedded database.
func Open(dsn string) (*gorm.DB, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), gormConfig())
	case strings.HasPrefix(dsn, sqlitePrefix):
		return OpenSQLite(strings.TrimPrefix(dsn, sqlitePrefix))
	default:
		return nil, fmt.Errorf("unsupported database url %q", dsn)
	}
}

// OpenSQLite opens an embedded database at path (":memory:" for tests).
// SQLite has a single writer, so the pool is capped at one connection; this
// also keeps an in-memory database alive across queries.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// AutoMigrate creates or updates the portfolio tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Holding{}, &domain.Sale{}, &domain.PortfolioEvent{})
}

// Reset empties the portfolio tables and restarts their id sequences.
func Reset(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			return tx.Exec("TRUNCATE TABLE " + strings.Join(portfolioTables, ", ") + " RESTART IDENTITY CASCADE").Error
		}
		for _, table := range portfolioTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		if tx.Dialector.Name() == "sqlite" && tx.Migrator().HasTable("sqlite_sequence") {
			return tx.Exec("DELETE FROM sqlite_sequence WHERE name IN ?", portfolioTables).Error
		}
		return nil
	})
}

// Pinger adapts a GORM DB to the health check's Ping interface.
type Pinger struct {
	DB *gorm.DB
}

func (p *Pinger) Ping() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
