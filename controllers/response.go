package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/services"
	"github.com/ponto-de-fuga/restaurant-api/utils"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindUnauthorized:    http.StatusUnauthorized,
	services.KindForbidden:       http.StatusForbidden,
	services.KindNotFound:        http.StatusNotFound,
	services.KindExpired:         http.StatusGone,
	services.KindInvalidInput:    http.StatusBadRequest,
	services.KindTooManyRequests: http.StatusTooManyRequests,
	services.KindConflict:        http.StatusConflict,
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondServiceError maps a service error to its HTTP status and envelope.
// Untagged errors are logged and reported as 500 without details.
func respondServiceError(c *gin.Context, err error) {
	var domainErr *services.Error
	if errors.As(err, &domainErr) {
		respondError(c, kindStatus[domainErr.Kind], domainErr.Code, domainErr.Message)
		return
	}
	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	_ = c.Error(err)
	slog.Error("Unhandled service error", "path", c.FullPath(), "error", err)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

// settings returns the loaded configuration, or defaults when none was loaded.
func settings() *config.Config {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func tableService() *services.TableService {
	return services.NewTableService(config.GetDB(), services.GetEventBus())
}

func kitchenService() *services.KitchenService {
	return services.NewKitchenService(config.GetDB(), services.GetEventBus())
}

func billService() *services.BillService {
	return services.NewBillService(config.GetDB(), settings().BillTokenTTL)
}

func consentService() *services.ConsentService {
	cfg := settings()
	svc := services.NewConsentService(config.GetDB(), services.GetEventBus())
	if cfg.ConsentWindow > 0 {
		svc.Window = cfg.ConsentWindow
	}
	if cfg.ConsentLimit > 0 {
		svc.Limit = cfg.ConsentLimit
	}
	return svc
}

func menuService() *services.MenuService {
	return services.NewMenuService(config.GetDB(), services.GetPhotoStore())
}

func reportService() *services.ReportService {
	return services.NewReportService(config.GetDB())
}

// AccountService builds the account service for the current configuration.
// Password login is only available when tokens are minted locally.
func AccountService() *services.AccountService {
	cfg := settings()
	var tokens *services.TokenIssuer
	if !cfg.UsesAuth0() && cfg.JWTSecret != "" {
		tokens = services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL)
	}
	return services.NewAccountService(config.GetDB(), tokens)
}
