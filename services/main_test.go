package services

import (
	"testing"
	"time"

	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	testNow = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

	adminID   = Identity{UserID: "admin-1", Role: models.RoleAdmin}
	waiterID  = Identity{UserID: "waiter-1", Role: models.RoleWaiter}
	kitchenID = Identity{UserID: "kitchen-1", Role: models.RoleKitchen}
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate test database")
	return db
}

// fixedClock returns a clock reading *now, so tests can move time forward.
func fixedClock(now *time.Time) func() time.Time {
	return func() time.Time { return *now }
}

func seedMenuItem(t *testing.T, db *gorm.DB, name, price string, available bool) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:      name,
		Category:  "Lanches",
		Price:     decimal.RequireFromString(price),
		Available: available,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedTable(t *testing.T, db *gorm.DB, number int, status models.TableStatus) models.Table {
	t.Helper()
	table := models.Table{
		Number:      number,
		Status:      status,
		TotalAmount: decimal.Zero,
		WaiterID:    waiterID.UserID,
		OpenedAt:    testNow,
	}
	require.NoError(t, db.Create(&table).Error)
	return table
}

func newTestTableService(db *gorm.DB, now *time.Time) *TableService {
	svc := NewTableService(db, NewHub(64))
	svc.Now = fixedClock(now)
	return svc
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got.String())
}
