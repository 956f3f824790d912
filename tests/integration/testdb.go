// Package integration runs the ledger, order and report flows against a real
// PostgreSQL started with testcontainers. Every test skips under -short.
package integration

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/migration"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm/logger"
)

const (
	pgImage    = "postgres:16-alpine"
	pgDatabase = "retail_test"
	pgUser     = "postgres"
	pgPassword = "retail-test"
)

// one container per package run; tests isolate their rows by shop id
var suite struct {
	sync.Mutex
	container *tcpostgres.PostgresContainer
	cfg       config.DatabaseConfig
}

// TestDB is a connection to the migrated shared database.
type TestDB struct {
	*persistence.Database
	t *testing.T
}

// NewTestDB opens a connection through persistence.NewDatabase, the same path
// the server takes, starting and migrating the container on first use.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := sharedConfig(t)
	var opts []persistence.DatabaseOption
	if os.Getenv("TEST_DB_DEBUG") != "" {
		opts = append(opts, persistence.WithGormLogger(logger.Default.LogMode(logger.Info)))
	}
	db, err := persistence.NewDatabase(&cfg, opts...)
	require.NoError(t, err, "connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	return &TestDB{Database: db, t: t}
}

func sharedConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	suite.Lock()
	defer suite.Unlock()
	if suite.container != nil {
		return suite.cfg
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, pgImage,
		tcpostgres.WithDatabase(pgDatabase),
		tcpostgres.WithUsername(pgUser),
		tcpostgres.WithPassword(pgPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start %s", pgImage)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            portNum,
		User:            pgUser,
		Password:        pgPassword,
		DBName:          pgDatabase,
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 5,
	}
	migrate(t, cfg)

	suite.container = container
	suite.cfg = cfg
	return cfg
}

// migrate applies the embedded schema the way cmd/migrate does.
func migrate(t *testing.T, cfg config.DatabaseConfig) {
	t.Helper()
	db, err := persistence.NewDatabase(&cfg)
	require.NoError(t, err)
	defer db.Close()
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB, migration.FromFS(migrations.FS), nil)
	require.NoError(t, err, "create migrator")
	require.NoError(t, m.Up(), "apply migrations")

	version, dirty, err := m.Version()
	require.NoError(t, err)
	require.False(t, dirty, "schema left dirty at version %d", version)
}

// CountRows counts the rows of table that belong to shopID.
func (tdb *TestDB) CountRows(table, shopID string) int64 {
	tdb.t.Helper()
	var n int64
	err := tdb.DB.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE shop_id = ?", table), shopID).Scan(&n).Error
	require.NoError(tdb.t, err, "count %s", table)
	return n
}

// CleanupSharedContainer stops the package container. TestMain calls it.
func CleanupSharedContainer() {
	suite.Lock()
	defer suite.Unlock()
	if suite.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = suite.container.Terminate(ctx)
	suite.container = nil
}
