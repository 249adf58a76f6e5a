package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/services"
)

// ConsentRequest represents the customer's marketing opt-in answer
type ConsentRequest struct {
	ConsentGiven *bool  `json:"consent_given" binding:"required"`
	Phone        string `json:"phone" binding:"max=32"`
}

// GetBill handles GET /api/v1/bills/:table_id?token= - public read-only bill
func GetBill(c *gin.Context) {
	bill, err := billService().Resolve(c.Request.Context(), c.Param("table_id"), c.Query("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, bill)
}

// SubmitConsent handles POST /api/v1/bills/:table_id/consent - public consent capture
func SubmitConsent(c *gin.Context) {
	var req ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	record, err := consentService().Submit(c.Request.Context(), services.ConsentInput{
		TableID:      c.Param("table_id"),
		ConsentGiven: *req.ConsentGiven,
		Phone:        req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, record)
}

// billDataRequest is the body the bill page posts to get-bill-data.
type billDataRequest struct {
	TableID      string `json:"tableId"`
	TableIDSnake string `json:"table_id"`
	Token        string `json:"token"`
}

// GetBillData handles POST /functions/v1/get-bill-data. The bill page and
// printed QR links depend on this exact shape: {table, orders} on success,
// 400 {error} on any failure.
func GetBillData(c *gin.Context) {
	var req billDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Table ID and token are required"})
		return
	}
	tableID := req.TableID
	if tableID == "" {
		tableID = req.TableIDSnake
	}

	bill, err := billService().Resolve(c.Request.Context(), tableID, req.Token)
	if err != nil {
		var domainErr *services.Error
		if !errors.As(err, &domainErr) {
			slog.Error("Failed to resolve bill", "table_id", tableID, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to load bill"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": domainErr.Message})
		return
	}
	c.JSON(http.StatusOK, bill)
}

// consentFunctionRequest is the body the bill page posts to submit-consent.
type consentFunctionRequest struct {
	TableID      string `json:"tableId"`
	ConsentGiven *bool  `json:"consentGiven"`
	Phone        string `json:"phone"`
}

// SubmitConsentFunction handles POST /functions/v1/submit-consent with the
// legacy contract: 200 {success, data}; 400, 404 or 429 {error}.
func SubmitConsentFunction(c *gin.Context) {
	var req consentFunctionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TableID == "" || req.ConsentGiven == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	record, err := consentService().Submit(c.Request.Context(), services.ConsentInput{
		TableID:      req.TableID,
		ConsentGiven: *req.ConsentGiven,
		Phone:        req.Phone,
	})
	if err != nil {
		var domainErr *services.Error
		if !errors.As(err, &domainErr) {
			slog.Error("Failed to record consent", "table_id", req.TableID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record consent"})
			return
		}
		status := http.StatusBadRequest
		switch domainErr.Kind {
		case services.KindNotFound:
			status = http.StatusNotFound
		case services.KindTooManyRequests:
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": domainErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": record})
}
