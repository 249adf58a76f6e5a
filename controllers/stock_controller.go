package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockItemRequest represents the body for creating or updating a stock item
type StockItemRequest struct {
	Nome            *string          `json:"nome" binding:"omitempty,max=120"`
	UnidadeDeMedida *string          `json:"unidade_de_medida" binding:"omitempty,oneof=un kg g l ml cx pct"`
	QuantidadeAtual *decimal.Decimal `json:"quantidade_atual"`
}

// ListStock handles GET /api/v1/stock - every stock item sorted by name (admin)
func ListStock(c *gin.Context) {
	var items []models.Insumo
	if err := config.GetDB().WithContext(c.Request.Context()).Order("nome asc").Find(&items).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, items)
}

// CreateStockItem handles POST /api/v1/stock (admin)
func CreateStockItem(c *gin.Context) {
	var req StockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.Nome == nil || strings.TrimSpace(*req.Nome) == "" || req.UnidadeDeMedida == nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "nome and unidade_de_medida are required")
		return
	}

	item := models.Insumo{
		Nome:            strings.TrimSpace(*req.Nome),
		UnidadeDeMedida: *req.UnidadeDeMedida,
		QuantidadeAtual: decimal.Zero,
	}
	if req.QuantidadeAtual != nil {
		if req.QuantidadeAtual.IsNegative() {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "quantidade_atual cannot be negative")
			return
		}
		item.QuantidadeAtual = *req.QuantidadeAtual
	}

	if err := config.GetDB().WithContext(c.Request.Context()).Create(&item).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, item)
}

// UpdateStockItem handles PUT /api/v1/stock/:id (admin)
func UpdateStockItem(c *gin.Context) {
	var req StockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	var item models.Insumo
	if err := db.Where("id = ?", c.Param("id")).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "STOCK_ITEM_NOT_FOUND", "Stock item not found")
			return
		}
		respondServiceError(c, err)
		return
	}

	if req.Nome != nil {
		if strings.TrimSpace(*req.Nome) == "" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "nome cannot be empty")
			return
		}
		item.Nome = strings.TrimSpace(*req.Nome)
	}
	if req.UnidadeDeMedida != nil {
		item.UnidadeDeMedida = *req.UnidadeDeMedida
	}
	if req.QuantidadeAtual != nil {
		if req.QuantidadeAtual.IsNegative() {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "quantidade_atual cannot be negative")
			return
		}
		item.QuantidadeAtual = *req.QuantidadeAtual
	}

	if err := db.Model(&item).Select("nome", "unidade_de_medida", "quantidade_atual").Updates(&item).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, item)
}

// DeleteStockItem handles DELETE /api/v1/stock/:id (admin, soft delete)
func DeleteStockItem(c *gin.Context) {
	result := config.GetDB().WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).Delete(&models.Insumo{})
	if result.Error != nil {
		respondServiceError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "STOCK_ITEM_NOT_FOUND", "Stock item not found")
		return
	}
	c.Status(http.StatusNoContent)
}
