package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TableService owns the table session lifecycle and order placement.
type TableService struct {
	db     *gorm.DB
	events EventBus
	Now    func() time.Time
}

// NewTableService creates a table service backed by db.
func NewTableService(db *gorm.DB, events EventBus) *TableService {
	return &TableService{db: db, events: events, Now: systemClock}
}

// OpenTableInput is the waiter's request to seat a party.
type OpenTableInput struct {
	Number     int
	ClientName string
}

// OrderLine is one cart line sent to the kitchen.
type OrderLine struct {
	MenuItemID   string
	Quantity     int
	Observations string
}

// TableFilter narrows ListTables. Zero values match everything.
type TableFilter struct {
	Statuses []models.TableStatus
	WaiterID string
}

// Open seats a party at table number. A pre-registered available session
// for that number is reused; an occupied or waiting_payment one is a conflict.
func (s *TableService) Open(ctx context.Context, id Identity, in OpenTableInput) (*models.Table, error) {
	if err := id.Require(models.RoleWaiter, models.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Number <= 0 {
		return nil, Errorf(ErrInvalidInput, "Table number must be positive")
	}

	now := s.Now()
	var clientName *string
	if name := strings.TrimSpace(in.ClientName); name != "" {
		clientName = &name
	}

	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Table
		err := tx.Where("number = ? AND status <> ?", in.Number, models.TableClosed).
			Order("created_at desc").
			First(&existing).Error
		switch {
		case err == nil:
			next, terr := NextTableStatus(ActionOpen, existing.Status)
			if terr != nil {
				return Errorf(ErrTableInUse, "Table %d is already %s", in.Number, existing.Status)
			}
			existing.Status = next
			existing.ClientName = clientName
			existing.WaiterID = id.UserID
			existing.OpenedAt = now
			existing.TotalAmount = decimal.Zero
			table = existing
			return tx.Save(&table).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			table = models.Table{
				Number:      in.Number,
				Status:      models.TableOccupied,
				ClientName:  clientName,
				TotalAmount: decimal.Zero,
				WaiterID:    id.UserID,
				OpenedAt:    now,
			}
			return tx.Create(&table).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, wrapStoreError("open table", err)
	}

	tablesOpened.Inc()
	slog.Info("Table opened", "table_id", table.ID, "number", table.Number, "waiter_id", id.UserID)
	s.events.Publish(ctx, tableEvent("insert", table.ID, string(table.Status), now))
	return &table, nil
}

// AddOrders appends order lines to an occupied table, snapshotting each
// menu price, and recomputes the table total from its orders.
func (s *TableService) AddOrders(ctx context.Context, id Identity, tableID string, lines []OrderLine) ([]models.Order, error) {
	if err := id.Require(models.RoleWaiter, models.RoleAdmin); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, Errorf(ErrInvalidInput, "At least one order line is required")
	}
	itemIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.MenuItemID == "" {
			return nil, Errorf(ErrInvalidInput, "menu_item_id is required")
		}
		if line.Quantity < 1 {
			return nil, Errorf(ErrInvalidInput, "Quantity must be at least 1")
		}
		itemIDs = append(itemIDs, line.MenuItemID)
	}

	now := s.Now()
	var orders []models.Order
	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTable(tx, tableID, &table); err != nil {
			return err
		}
		if _, err := NextTableStatus(ActionAddOrder, table.Status); err != nil {
			return err
		}

		var items []models.MenuItem
		if err := tx.Where("id IN ?", itemIDs).Find(&items).Error; err != nil {
			return err
		}
		byID := make(map[string]models.MenuItem, len(items))
		for _, item := range items {
			byID[item.ID] = item
		}

		orders = make([]models.Order, 0, len(lines))
		for _, line := range lines {
			item, ok := byID[line.MenuItemID]
			if !ok {
				return Errorf(ErrMenuItemNotFound, "Menu item %s not found", line.MenuItemID)
			}
			if !item.Available {
				return Errorf(ErrMenuItemInactive, "%s is not available", item.Name)
			}
			var observations *string
			if obs := strings.TrimSpace(line.Observations); obs != "" {
				observations = &obs
			}
			orders = append(orders, models.Order{
				TableID:      table.ID,
				MenuItemID:   item.ID,
				Quantity:     line.Quantity,
				ItemPrice:    item.Price,
				Observations: observations,
				Status:       models.OrderPending,
				WaiterID:     id.UserID,
				CreatedAt:    now,
			})
		}
		if err := tx.Create(&orders).Error; err != nil {
			return err
		}
		for i := range orders {
			item := byID[orders[i].MenuItemID]
			orders[i].MenuItem = &item
		}
		return recomputeTotal(tx, &table)
	})
	if err != nil {
		return nil, wrapStoreError("add orders", err)
	}

	ordersPlaced.Add(float64(len(orders)))
	slog.Info("Orders placed", "table_id", table.ID, "lines", len(orders), "total", table.TotalAmount.StringFixed(2))
	for _, o := range orders {
		s.events.Publish(ctx, orderEvent("insert", table.ID, o.ID, string(o.Status), now))
	}
	s.events.Publish(ctx, tableEvent("update", table.ID, string(table.Status), now))
	return orders, nil
}

// Close ends the session: the total is recomputed one last time and frozen,
// closed_at is stamped and the table becomes terminal.
func (s *TableService) Close(ctx context.Context, id Identity, tableID string) (*models.Table, error) {
	if err := id.Require(models.RoleWaiter, models.RoleAdmin); err != nil {
		return nil, err
	}

	now := s.Now()
	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTable(tx, tableID, &table); err != nil {
			return err
		}
		next, err := NextTableStatus(ActionClose, table.Status)
		if err != nil {
			return err
		}
		if err := recomputeTotal(tx, &table); err != nil {
			return err
		}
		table.Status = next
		table.ClosedAt = &now
		return tx.Model(&table).Updates(map[string]interface{}{
			"status":    next,
			"closed_at": now,
		}).Error
	})
	if err != nil {
		return nil, wrapStoreError("close table", err)
	}

	tablesClosed.Inc()
	slog.Info("Table closed", "table_id", table.ID, "number", table.Number, "total", table.TotalAmount.StringFixed(2))
	s.events.Publish(ctx, tableEvent("update", table.ID, string(table.Status), now))
	return &table, nil
}

// Get returns a table with its orders in placement order.
func (s *TableService) Get(ctx context.Context, id Identity, tableID string) (*models.Table, error) {
	if err := id.Require(models.RoleWaiter, models.RoleAdmin); err != nil {
		return nil, err
	}
	var table models.Table
	if err := withOrders(s.db.WithContext(ctx)).Where("id = ?", tableID).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to load table: %w", err)
	}
	return &table, nil
}

// List returns table sessions, most recently opened first.
func (s *TableService) List(ctx context.Context, id Identity, filter TableFilter) ([]models.Table, error) {
	if err := id.Require(models.RoleWaiter, models.RoleAdmin); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&models.Table{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.WaiterID != "" {
		query = query.Where("waiter_id = ?", filter.WaiterID)
	}
	var tables []models.Table
	if err := query.Order("opened_at desc").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

func findTable(tx *gorm.DB, tableID string, table *models.Table) error {
	if err := tx.Where("id = ?", tableID).First(table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTableNotFound
		}
		return err
	}
	return nil
}

// forUpdate locks the selected rows until the transaction ends. SQLite
// ignores the clause; its writers are already serialized.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockTable loads the table and holds its row lock for the rest of tx.
func lockTable(tx *gorm.DB, tableID string, table *models.Table) error {
	return findTable(tx.Scopes(forUpdate), tableID, table)
}

// recomputeTotal derives total_amount from the persisted orders. Callers
// hold the table row lock, so writers on one table run one at a time and
// the sum covers every committed order.
func recomputeTotal(tx *gorm.DB, table *models.Table) error {
	var orders []models.Order
	if err := tx.Where("table_id = ?", table.ID).Find(&orders).Error; err != nil {
		return err
	}
	total := models.SumOrders(orders)
	if err := tx.Model(&models.Table{}).Where("id = ?", table.ID).Update("total_amount", total).Error; err != nil {
		return err
	}
	table.TotalAmount = total
	return nil
}

// withOrders preloads orders with their menu items, including soft-deleted
// ones so historical bills still show item names.
func withOrders(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Orders.MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
}

// wrapStoreError passes domain errors through and wraps everything else.
func wrapStoreError(op string, err error) error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
