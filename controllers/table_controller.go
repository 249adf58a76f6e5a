package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/middleware"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
	"github.com/ponto-de-fuga/restaurant-api/utils"
)

// OpenTableRequest represents the request body for opening a table
type OpenTableRequest struct {
	Number     int    `json:"number" binding:"required,gt=0"`
	ClientName string `json:"client_name" binding:"max=120"`
}

// OrderLineRequest is one cart line in an AddOrdersRequest
type OrderLineRequest struct {
	MenuItemID   string `json:"menu_item_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	Observations string `json:"observations" binding:"max=500"`
}

// AddOrdersRequest represents the waiter's cart sent to the kitchen
type AddOrdersRequest struct {
	Items []OrderLineRequest `json:"items" binding:"required,min=1,dive"`
}

// BillTokenResponse is returned when a waiter requests the bill link
type BillTokenResponse struct {
	TableID   string    `json:"table_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	BillURL   string    `json:"bill_url"`
	QRCodeURL string    `json:"qr_code_url"`
}

// OpenTable handles POST /api/v1/tables - seats a party (waiter/admin)
func OpenTable(c *gin.Context) {
	var req OpenTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	table, err := tableService().Open(c.Request.Context(), middleware.GetIdentity(c), services.OpenTableInput{
		Number:     req.Number,
		ClientName: req.ClientName,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, table)
}

// ListTables handles GET /api/v1/tables?status=occupied,waiting_payment&mine=true
func ListTables(c *gin.Context) {
	id := middleware.GetIdentity(c)
	filter := services.TableFilter{WaiterID: c.Query("waiter_id")}
	if c.Query("mine") == "true" {
		filter.WaiterID = id.UserID
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.TableStatus(strings.TrimSpace(s))
			if !status.Valid() {
				respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Invalid table status: "+string(status))
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	tables, err := tableService().List(c.Request.Context(), id, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, tables)
}

// GetTable handles GET /api/v1/tables/:id - table with its orders
func GetTable(c *gin.Context) {
	table, err := tableService().Get(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, table)
}

// AddOrders handles POST /api/v1/tables/:id/orders - sends a cart to the kitchen
func AddOrders(c *gin.Context) {
	var req AddOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.OrderLine{
			MenuItemID:   item.MenuItemID,
			Quantity:     item.Quantity,
			Observations: item.Observations,
		})
	}

	orders, err := tableService().AddOrders(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), lines)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, orders)
}

// CloseTable handles POST /api/v1/tables/:id/close - freezes the total and closes the session
func CloseTable(c *gin.Context) {
	table, err := tableService().Close(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, table)
}

// IssueBillToken handles POST /api/v1/tables/:id/bill-token - mints the bill link and QR image URL
func IssueBillToken(c *gin.Context) {
	token, err := billService().Issue(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	cfg := settings()
	billURL := utils.BillURL(cfg.PublicBaseURL, token.TableID, token.Token)
	respondData(c, http.StatusCreated, BillTokenResponse{
		TableID:   token.TableID,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		BillURL:   billURL,
		QRCodeURL: utils.QRCodeURL(cfg.QRCodeServiceURL, billURL),
	})
}
