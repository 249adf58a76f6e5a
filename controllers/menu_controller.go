package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/middleware"
	"github.com/ponto-de-fuga/restaurant-api/services"
	"github.com/shopspring/decimal"
)

// MenuItemRequest represents the body of menu item create and update calls.
// Omitted fields are left unchanged on update.
type MenuItemRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=120"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
	Category    *string          `json:"category" binding:"omitempty,max=60"`
	Price       *decimal.Decimal `json:"price"`
	Available   *bool            `json:"available"`
}

func (r MenuItemRequest) input() services.MenuItemInput {
	return services.MenuItemInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Available:   r.Available,
	}
}

// ListMenu handles GET /api/v1/menu - orderable items for the waiter screen
func ListMenu(c *gin.Context) {
	items, err := menuService().List(c.Request.Context(), middleware.GetIdentity(c), true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, items)
}

// ListMenuItems handles GET /api/v1/menu-items - every item, available or not (admin)
func ListMenuItems(c *gin.Context) {
	items, err := menuService().List(c.Request.Context(), middleware.GetIdentity(c), c.Query("available") == "true")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, items)
}

// GetMenuItem handles GET /api/v1/menu-items/:id
func GetMenuItem(c *gin.Context) {
	item, err := menuService().Get(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

// CreateMenuItem handles POST /api/v1/menu-items (admin)
func CreateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	item, err := menuService().Create(c.Request.Context(), middleware.GetIdentity(c), req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, item)
}

// UpdateMenuItem handles PUT /api/v1/menu-items/:id (admin)
func UpdateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	item, err := menuService().Update(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

// DeleteMenuItem handles DELETE /api/v1/menu-items/:id (admin, soft delete)
func DeleteMenuItem(c *gin.Context) {
	if err := menuService().Delete(c.Request.Context(), middleware.GetIdentity(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadMenuItemImage handles POST /api/v1/menu-items/:id/image - multipart field "image"
func UploadMenuItemImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the 'image' field")
		return
	}
	item, err := menuService().AttachPhoto(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), fileHeader)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}
