package testutil

import (
	"os"
	"testing"

	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// It fails the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// NewTestDB opens a migrated in-memory database and installs it as the
// global connection together with a fresh event hub. Both are restored when
// the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate test database")

	originalDB, originalBus := config.GetDB(), services.GetEventBus()
	config.SetDB(db)
	services.SetEventBus(services.NewHub(64))
	t.Cleanup(func() {
		config.SetDB(originalDB)
		services.SetEventBus(originalBus)
		_ = sqlDB.Close()
	})
	return db
}

// LocalConfig returns a configuration that signs and validates HS256 tokens
// locally and installs it as the current configuration.
func LocalConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.GoEnv = "test"
	cfg.DatabaseURL = "file::memory:"
	cfg.JWTSecret = "integration-test-secret"
	cfg.PublicRateLimit = "1000-M"
	require.NoError(t, cfg.Validate())

	original := config.GetConfig()
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(original) })
	return cfg
}
