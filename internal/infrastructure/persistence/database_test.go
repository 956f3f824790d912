package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase wraps a sqlmock connection that also expects pings.
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}),
		&gorm.Config{SkipDefaultTransaction: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return &Database{DB: gormDB}, mock, mockDB
}

// newTestDB opens a private in-memory sqlite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := NewSQLiteMemoryDatabase(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func TestShopScope(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	shopID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "expenses" WHERE shop_id = \$1`).
		WithArgs(shopID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "shop_id", "category"}).
			AddRow(uuid.NewString(), shopID.String(), "RENT"))

	var rows []map[string]any
	require.NoError(t, db.DB.Table("expenses").Scopes(ShopScope(shopID)).Find(&rows).Error)
	assert.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats := db.Stats()
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("successful ping", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing()

		assert.NoError(t, db.Ping())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping failure is returned", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		assert.ErrorIs(t, db.Ping(), sql.ErrConnDone)
	})
}

func TestNewSQLiteMemoryDatabase(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{
		"customers", "suppliers", "products", "product_variants", "orders", "order_items",
		"debts_to_be_paid", "debts_to_pay", "expenses", "adjustments", "waste_records",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestNewSQLiteMemoryDatabase_SingleConnection(t *testing.T) {
	database, err := NewSQLiteMemoryDatabase(uuid.NewString())
	require.NoError(t, err)
	defer database.Close()

	assert.Equal(t, 1, database.Stats().MaxOpenConnections)
	assert.NoError(t, database.Ping())
}
