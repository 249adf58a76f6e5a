package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ponto-de-fuga/restaurant-api/models"
	"gorm.io/gorm"
)

// KitchenService drives order lines through preparation.
type KitchenService struct {
	db     *gorm.DB
	events EventBus
	Now    func() time.Time
}

// NewKitchenService creates a kitchen service backed by db.
func NewKitchenService(db *gorm.DB, events EventBus) *KitchenService {
	return &KitchenService{db: db, events: events, Now: systemClock}
}

// Queue returns every pending or preparing order, oldest first, with the
// menu item and table needed by the kitchen display.
func (s *KitchenService) Queue(ctx context.Context, id Identity) ([]models.Order, error) {
	if err := id.Require(models.RoleKitchen, models.RoleAdmin); err != nil {
		return nil, err
	}
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Table").
		Where("status IN ?", []models.OrderStatus{models.OrderPending, models.OrderPreparing}).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load kitchen queue: %w", err)
	}
	return orders, nil
}

// Start marks a pending order as being prepared.
func (s *KitchenService) Start(ctx context.Context, id Identity, orderID string) (*models.Order, error) {
	if err := id.Require(models.RoleKitchen, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.advance(ctx, orderID, ActionStart)
}

// Complete marks an order ready for pickup and stamps completed_at. Orders
// may skip preparing.
func (s *KitchenService) Complete(ctx context.Context, id Identity, orderID string) (*models.Order, error) {
	if err := id.Require(models.RoleKitchen, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.advance(ctx, orderID, ActionComplete)
}

// Deliver records that the waiter served a ready order.
func (s *KitchenService) Deliver(ctx context.Context, id Identity, orderID string) (*models.Order, error) {
	if err := id.Require(models.RoleWaiter, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.advance(ctx, orderID, ActionDeliver)
}

func (s *KitchenService) advance(ctx context.Context, orderID string, action OrderAction) (*models.Order, error) {
	now := s.Now()
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		next, err := NextOrderStatus(action, order.Status)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{"status": next}
		if next == models.OrderReady {
			updates["completed_at"] = now
			order.CompletedAt = &now
		}
		order.Status = next
		return tx.Model(&order).Updates(updates).Error
	})
	if err != nil {
		return nil, wrapStoreError(string(action)+" order", err)
	}

	orderStatusChanges.WithLabelValues(string(action)).Inc()
	slog.Info("Order status changed", "order_id", order.ID, "table_id", order.TableID, "action", action, "status", order.Status)
	s.events.Publish(ctx, orderEvent("update", order.TableID, order.ID, string(order.Status), now))
	return &order, nil
}
