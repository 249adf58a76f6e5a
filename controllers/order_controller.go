package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/middleware"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
)

// KitchenQueue handles GET /api/v1/kitchen/queue - pending and preparing orders, oldest first
func KitchenQueue(c *gin.Context) {
	orders, err := kitchenService().Queue(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, orders)
}

// StartOrder handles POST /api/v1/orders/:id/start (kitchen/admin)
func StartOrder(c *gin.Context) {
	advanceOrder(c, kitchenService().Start)
}

// CompleteOrder handles POST /api/v1/orders/:id/complete (kitchen/admin)
func CompleteOrder(c *gin.Context) {
	advanceOrder(c, kitchenService().Complete)
}

// DeliverOrder handles POST /api/v1/orders/:id/deliver (waiter/admin)
func DeliverOrder(c *gin.Context) {
	advanceOrder(c, kitchenService().Deliver)
}

type orderAction func(ctx context.Context, id services.Identity, orderID string) (*models.Order, error)

func advanceOrder(c *gin.Context, action orderAction) {
	order, err := action(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondData(c, http.StatusOK, order)
}
