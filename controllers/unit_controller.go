package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"gorm.io/gorm"
)

// UnitRequest represents the body for creating or updating a unit
type UnitRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=120"`
	Address *string `json:"address" binding:"omitempty,max=255"`
}

// ListUnits handles GET /api/v1/units (admin)
func ListUnits(c *gin.Context) {
	var units []models.Unit
	if err := config.GetDB().WithContext(c.Request.Context()).Order("name asc").Find(&units).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, units)
}

// CreateUnit handles POST /api/v1/units (admin)
func CreateUnit(c *gin.Context) {
	var req UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "name is required")
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	name := strings.TrimSpace(*req.Name)
	var existing int64
	if err := db.Model(&models.Unit{}).Where("name = ?", name).Count(&existing).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if existing > 0 {
		respondError(c, http.StatusConflict, "UNIT_EXISTS", "A unit with this name already exists")
		return
	}

	unit := models.Unit{Name: name, Address: trimmedOrNil(req.Address)}
	if err := db.Create(&unit).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, unit)
}

// UpdateUnit handles PUT /api/v1/units/:id (admin)
func UpdateUnit(c *gin.Context) {
	var req UnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	var unit models.Unit
	if err := db.Where("id = ?", c.Param("id")).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "UNIT_NOT_FOUND", "Unit not found")
			return
		}
		respondServiceError(c, err)
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "name cannot be empty")
			return
		}
		var clash int64
		if err := db.Model(&models.Unit{}).Where("name = ? AND id <> ?", name, unit.ID).Count(&clash).Error; err != nil {
			respondServiceError(c, err)
			return
		}
		if clash > 0 {
			respondError(c, http.StatusConflict, "UNIT_EXISTS", "A unit with this name already exists")
			return
		}
		unit.Name = name
	}
	if req.Address != nil {
		unit.Address = trimmedOrNil(req.Address)
	}

	if err := db.Model(&unit).Select("name", "address").Updates(&unit).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, unit)
}

// DeleteUnit handles DELETE /api/v1/units/:id (admin). Units with staff
// assigned cannot be deleted.
func DeleteUnit(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())
	unitID := c.Param("id")

	var members int64
	if err := db.Model(&models.Profile{}).Where("unit_id = ?", unitID).Count(&members).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	if members > 0 {
		respondError(c, http.StatusConflict, "UNIT_IN_USE", "Unit still has staff assigned")
		return
	}

	result := db.Where("id = ?", unitID).Delete(&models.Unit{})
	if result.Error != nil {
		respondServiceError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusNotFound, "UNIT_NOT_FOUND", "Unit not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
