package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/middleware"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	admin   = services.Identity{UserID: "admin-1", Role: models.RoleAdmin}
	waiter  = services.Identity{UserID: "waiter-1", Role: models.RoleWaiter}
	kitchen = services.Identity{UserID: "kitchen-1", Role: models.RoleKitchen}
	nobody  = services.Identity{}
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to migrate test database")

	originalDB, originalCfg, originalBus := config.GetDB(), config.GetConfig(), services.GetEventBus()
	config.SetDB(db)
	config.SetConfig(nil)
	services.SetEventBus(services.NewHub(64))
	t.Cleanup(func() {
		config.SetDB(originalDB)
		config.SetConfig(originalCfg)
		services.SetEventBus(originalBus)
		_ = sqlDB.Close()
	})
	return db
}

// newTestRouter mounts every handler behind a middleware that authenticates
// requests as id. Role checks are left to the services.
func newTestRouter(id services.Identity) *gin.Engine {
	router := gin.New()
	functions := router.Group("/functions/v1")
	functions.POST("/get-bill-data", GetBillData)
	functions.POST("/submit-consent", SubmitConsentFunction)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", Login)
	v1.POST("/auth/kitchen-login", KitchenLogin)
	v1.GET("/bills/:table_id", GetBill)
	v1.POST("/bills/:table_id/consent", SubmitConsent)
	v1.GET("/uploads/:filename", GetUploadedImage)

	authed := v1.Group("", func(c *gin.Context) {
		if id.UserID != "" {
			middleware.SetIdentity(c, id)
		}
		c.Next()
	})
	authed.GET("/me", GetMyProfile)
	authed.POST("/tables", OpenTable)
	authed.GET("/tables", ListTables)
	authed.GET("/tables/:id", GetTable)
	authed.POST("/tables/:id/orders", AddOrders)
	authed.POST("/tables/:id/close", CloseTable)
	authed.POST("/tables/:id/bill-token", IssueBillToken)
	authed.GET("/kitchen/queue", KitchenQueue)
	authed.POST("/orders/:id/start", StartOrder)
	authed.POST("/orders/:id/complete", CompleteOrder)
	authed.POST("/orders/:id/deliver", DeliverOrder)
	authed.GET("/menu", ListMenu)
	authed.GET("/menu-items", ListMenuItems)
	authed.POST("/menu-items", CreateMenuItem)
	authed.GET("/menu-items/:id", GetMenuItem)
	authed.PUT("/menu-items/:id", UpdateMenuItem)
	authed.DELETE("/menu-items/:id", DeleteMenuItem)
	authed.POST("/menu-items/:id/image", UploadMenuItemImage)
	authed.GET("/stock", ListStock)
	authed.POST("/stock", CreateStockItem)
	authed.PUT("/stock/:id", UpdateStockItem)
	authed.DELETE("/stock/:id", DeleteStockItem)
	authed.GET("/units", ListUnits)
	authed.POST("/units", CreateUnit)
	authed.PUT("/units/:id", UpdateUnit)
	authed.DELETE("/units/:id", DeleteUnit)
	authed.GET("/users", ListUsers)
	authed.POST("/users", CreateUser)
	authed.PUT("/users/:id", UpdateUser)
	authed.DELETE("/users/:id", DeleteUser)
	authed.POST("/kitchens", CreateKitchen)
	authed.GET("/reports/sales", SalesReport)
	authed.GET("/events", StreamEvents)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response should be valid JSON: %s", w.Body.String())
	}
	return w, response
}

func errorCode(response map[string]interface{}) string {
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}

func seedMenuItem(t *testing.T, db *gorm.DB, name, price string) models.MenuItem {
	t.Helper()
	item := models.MenuItem{Name: name, Category: "Lanches", Price: decimal.RequireFromString(price), Available: true}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedTable(t *testing.T, db *gorm.DB, number int, status models.TableStatus) models.Table {
	t.Helper()
	table := models.Table{Number: number, Status: status, TotalAmount: decimal.Zero, WaiterID: waiter.UserID}
	require.NoError(t, db.Create(&table).Error)
	return table
}

func seedProfile(t *testing.T, db *gorm.DB, id string, role models.Role) models.Profile {
	t.Helper()
	profile := models.Profile{Base: models.Base{ID: id}, AuthID: id, Email: id + "@example.com", FullName: id, Role: role}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

func okStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equalf(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}
