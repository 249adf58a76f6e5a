package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/middleware"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
)

// LoginRequest represents the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// KitchenLoginRequest represents the body of POST /auth/kitchen-login
type KitchenLoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// CreateUserRequest represents the request body for provisioning a staff account
type CreateUserRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password"`
	FullName string      `json:"full_name" binding:"required,max=120"`
	Role     models.Role `json:"role" binding:"required,oneof=admin waiter kitchen"`
	UnitID   string      `json:"unit_id"`
	AuthID   string      `json:"auth_id"`
}

// UpdateUserRequest represents the request body for updating a staff account
type UpdateUserRequest struct {
	FullName *string      `json:"full_name" binding:"omitempty,max=120"`
	Role     *models.Role `json:"role" binding:"omitempty,oneof=admin waiter kitchen"`
	UnitID   *string      `json:"unit_id"`
}

// CreateKitchenRequest represents the request body for a kitchen terminal account
type CreateKitchenRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required,min=8"`
	UnitID     string `json:"unit_id" binding:"required"`
}

// Login handles POST /api/v1/auth/login - email and password login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	session, err := AccountService().Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, session)
}

// KitchenLogin handles POST /api/v1/auth/kitchen-login - kitchen terminal login
func KitchenLogin(c *gin.Context) {
	var req KitchenLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	session, err := AccountService().KitchenLogin(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, session)
}

// GetMyProfile handles GET /api/v1/me - the caller's own profile
func GetMyProfile(c *gin.Context) {
	profile, err := AccountService().Me(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, profile)
}

// ListUsers handles GET /api/v1/users (admin)
func ListUsers(c *gin.Context) {
	profiles, err := AccountService().ListUsers(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, profiles)
}

// CreateUser handles POST /api/v1/users (admin)
func CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	profile, err := AccountService().CreateUser(c.Request.Context(), middleware.GetIdentity(c), services.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
		UnitID:   req.UnitID,
		AuthID:   req.AuthID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, profile)
}

// UpdateUser handles PUT /api/v1/users/:id (admin)
func UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	profile, err := AccountService().UpdateUser(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), services.UpdateUserInput{
		FullName: req.FullName,
		Role:     req.Role,
		UnitID:   req.UnitID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, profile)
}

// DeleteUser handles DELETE /api/v1/users/:id (admin, soft delete)
func DeleteUser(c *gin.Context) {
	if err := AccountService().SoftDeleteUser(c.Request.Context(), middleware.GetIdentity(c), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateKitchen handles POST /api/v1/kitchens (admin) - shared kitchen terminal account
func CreateKitchen(c *gin.Context) {
	var req CreateKitchenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	profile, err := AccountService().CreateKitchen(c.Request.Context(), middleware.GetIdentity(c), services.CreateKitchenInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		UnitID:     req.UnitID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusCreated, profile)
}
