package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order line through the kitchen.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
)

// Order is one line item requested for a table. ItemPrice is the menu price
// at the moment the order was placed and is never rewritten.
type Order struct {
	Base
	TableID      string          `gorm:"type:varchar(36);not null;index" json:"table_id"`
	Table        *Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	MenuItemID   string          `gorm:"type:varchar(36);not null;index" json:"menu_item_id"`
	MenuItem     *MenuItem       `gorm:"foreignKey:MenuItemID" json:"menu_items,omitempty"`
	Quantity     int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	ItemPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"item_price"`
	Observations *string         `gorm:"type:text" json:"observations"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	WaiterID     string          `gorm:"type:varchar(36);not null" json:"waiter_id"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// LineTotal is ItemPrice × Quantity.
func (o *Order) LineTotal() decimal.Decimal {
	return o.ItemPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// SumOrders returns the bill total for a set of order lines.
func SumOrders(orders []Order) decimal.Decimal {
	total := decimal.Zero
	for i := range orders {
		total = total.Add(orders[i].LineTotal())
	}
	return total
}
