package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/controllers"
	"github.com/ponto-de-fuga/restaurant-api/logging"
	"github.com/ponto-de-fuga/restaurant-api/middleware"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
	"github.com/ponto-de-fuga/restaurant-api/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "restaurant-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.IsProduction())
	slog.Info("Starting restaurant API server", "env", cfg.GoEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, serviceName)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := config.GetDB().AutoMigrate(models.All()...); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migration completed successfully")

	if cfg.RedisURL != "" {
		client, err := config.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		bus := services.NewRedisBus(client, services.NewHub(64))
		go func() {
			if err := bus.Run(ctx); err != nil {
				slog.Error("Change feed relay stopped", "error", err)
			}
		}()
		services.SetEventBus(bus)
	}

	if _, err := services.InitPhotoStore(ctx); err != nil {
		slog.Error("Failed to initialize photo store", "error", err)
		os.Exit(1)
	}

	jwtValidator, err := middleware.NewTokenValidator(cfg)
	if err != nil {
		slog.Error("Failed to set up the token validator", "error", err)
		os.Exit(1)
	}

	router, err := setupRouter(cfg, jwtValidator)
	if err != nil {
		slog.Error("Failed to set up router", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server is running", "addr", "http://localhost:"+cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// setupRouter builds the HTTP routes. Everything under /api/v1 except
// health, login and the customer bill endpoints requires a bearer token.
func setupRouter(cfg *config.Config, jwtValidator *validator.Validator) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))
	router.Use(middleware.RequestLogger(), middleware.Metrics(), gin.Recovery())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publicLimit, err := middleware.RateLimit(cfg.PublicRateLimit)
	if err != nil {
		return nil, err
	}

	// Serverless-style contracts the customer QR page calls directly.
	functions := router.Group("/functions/v1", publicLimit)
	{
		functions.POST("/get-bill-data", controllers.GetBillData)
		functions.POST("/submit-consent", controllers.SubmitConsentFunction)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/uploads/:filename", controllers.GetUploadedImage)

		public := v1.Group("", publicLimit)
		{
			public.POST("/auth/login", controllers.Login)
			public.POST("/auth/kitchen-login", controllers.KitchenLogin)
			public.GET("/bills/:table_id", controllers.GetBill)
			public.POST("/bills/:table_id/consent", controllers.SubmitConsent)
		}

		var userInfo services.UserInfoFetcher
		if cfg.UsesAuth0() {
			userInfo = services.NewAuth0Service(cfg.Auth0Domain)
		}

		authed := v1.Group("",
			middleware.EnsureValidToken(jwtValidator),
			middleware.LoadIdentity(controllers.AccountService(), userInfo),
		)
		{
			authed.GET("/me", controllers.GetMyProfile)
			authed.GET("/events", controllers.StreamEvents)

			floor := authed.Group("", middleware.RequireRole(models.RoleWaiter, models.RoleAdmin))
			{
				floor.POST("/tables", controllers.OpenTable)
				floor.GET("/tables", controllers.ListTables)
				floor.GET("/tables/:id", controllers.GetTable)
				floor.POST("/tables/:id/orders", controllers.AddOrders)
				floor.POST("/tables/:id/close", controllers.CloseTable)
				floor.POST("/tables/:id/bill-token", controllers.IssueBillToken)
				floor.POST("/orders/:id/deliver", controllers.DeliverOrder)
				floor.GET("/menu", controllers.ListMenu)
			}

			kitchen := authed.Group("", middleware.RequireRole(models.RoleKitchen, models.RoleAdmin))
			{
				kitchen.GET("/kitchen/queue", controllers.KitchenQueue)
				kitchen.POST("/orders/:id/start", controllers.StartOrder)
				kitchen.POST("/orders/:id/complete", controllers.CompleteOrder)
			}

			admin := authed.Group("", middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/menu-items", controllers.ListMenuItems)
				admin.POST("/menu-items", controllers.CreateMenuItem)
				admin.GET("/menu-items/:id", controllers.GetMenuItem)
				admin.PUT("/menu-items/:id", controllers.UpdateMenuItem)
				admin.DELETE("/menu-items/:id", controllers.DeleteMenuItem)
				admin.POST("/menu-items/:id/image", controllers.UploadMenuItemImage)

				admin.GET("/stock", controllers.ListStock)
				admin.POST("/stock", controllers.CreateStockItem)
				admin.PUT("/stock/:id", controllers.UpdateStockItem)
				admin.DELETE("/stock/:id", controllers.DeleteStockItem)

				admin.GET("/units", controllers.ListUnits)
				admin.POST("/units", controllers.CreateUnit)
				admin.PUT("/units/:id", controllers.UpdateUnit)
				admin.DELETE("/units/:id", controllers.DeleteUnit)

				admin.GET("/users", controllers.ListUsers)
				admin.POST("/users", controllers.CreateUser)
				admin.PUT("/users/:id", controllers.UpdateUser)
				admin.DELETE("/users/:id", controllers.DeleteUser)
				admin.POST("/kitchens", controllers.CreateKitchen)

				admin.GET("/reports/sales", controllers.SalesReport)
			}
		}
	}

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	for _, origin := range origins {
		if origin == "*" {
			corsConfig.AllowAllOrigins = true
			return cors.New(corsConfig)
		}
	}
	corsConfig.AllowOrigins = origins
	return cors.New(corsConfig)
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	status := "connected"
	code := http.StatusOK
	if err := pingDatabase(c.Request.Context()); err != nil {
		slog.Warn("Health check database ping failed", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"success":  code == http.StatusOK,
		"message":  "Restaurant API is running",
		"database": status,
	})
}

func pingDatabase(ctx context.Context) error {
	db := config.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
