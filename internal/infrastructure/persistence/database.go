package persistence

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns the GORM handle and its connection pool.
type Database struct {
	DB *gorm.DB
}

// DatabaseOption configures NewDatabase
type DatabaseOption func(*gorm.Config)

// WithGormLogger replaces the default silent GORM logger
func WithGormLogger(l logger.Interface) DatabaseOption {
	return func(c *gorm.Config) { c.Logger = l }
}

// NewDatabase opens, sizes and pings the configured database. Postgres schemas
// come from the SQL migrations; sqlite is brought up to date with AutoMigrate.
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	gormCfg := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(gormCfg)
	}

	sqliteMode := cfg.Driver == config.DriverSQLite
	var dialector gorm.Dialector
	if sqliteMode {
		dialector = sqlite.Open(sqliteDSN(cfg.SQLitePath))
	} else {
		dialector = postgres.Open(cfg.DSN())
		gormCfg.PrepareStmt = true
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	database := &Database{DB: db}
	pool, err := database.pool()
	if err != nil {
		return nil, err
	}
	sizePool(pool, cfg, sqliteMode)

	if err := pool.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}
	if sqliteMode {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}
	return database, nil
}

func sizePool(pool *sql.DB, cfg *config.DatabaseConfig, sqliteMode bool) {
	if sqliteMode {
		// a single connection keeps sqlite writers from failing with SQLITE_BUSY
		pool.SetMaxOpenConns(1)
		return
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// NewSQLiteMemoryDatabase opens a named in-memory sqlite database with the
// full schema. Distinct names never share data.
func NewSQLiteMemoryDatabase(name string) (*Database, error) {
	return NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: "file:" + name + "?mode=memory&cache=shared",
	})
}

func sqliteDSN(path string) string {
	if path == "" {
		return "file::memory:"
	}
	return path
}

// AutoMigrate creates or alters every table registered in models.All.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func (d *Database) pool() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("connection pool: %w", err)
	}
	return pool, nil
}

func (d *Database) Close() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}

// Ping backs the health endpoint.
func (d *Database) Ping() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Ping()
}

// Stats reports pool usage for the pool metrics; zero when the pool is gone.
func (d *Database) Stats() sql.DBStats {
	pool, err := d.pool()
	if err != nil {
		return sql.DBStats{}
	}
	return pool.Stats()
}

// ShopScope restricts a query to one shop. Every shop-owned table has a shop_id column.
func ShopScope(shopID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("shop_id = ?", shopID)
	}
}
