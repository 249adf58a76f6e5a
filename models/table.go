package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TableStatus is the lifecycle state of a table session.
type TableStatus string

const (
	TableAvailable      TableStatus = "available"
	TableOccupied       TableStatus = "occupied"
	TableWaitingPayment TableStatus = "waiting_payment"
	TableClosed         TableStatus = "closed"
)

// Valid reports whether s is one of the known table states.
func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableWaitingPayment, TableClosed:
		return true
	}
	return false
}

// Table is one dining session on a physical table, from open to close.
type Table struct {
	Base
	Number      int             `gorm:"not null;index" json:"number"`
	Status      TableStatus     `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	ClientName  *string         `json:"client_name"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	WaiterID    string          `gorm:"type:varchar(36);not null;index" json:"waiter_id"`
	OpenedAt    time.Time       `gorm:"not null" json:"opened_at"`
	ClosedAt    *time.Time      `gorm:"index" json:"closed_at"`
	Orders      []Order         `gorm:"foreignKey:TableID" json:"orders,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Table model
func (Table) TableName() string {
	return "tables"
}

// Active reports whether the session still accepts waiter actions.
func (t *Table) Active() bool {
	return t.Status == TableOccupied || t.Status == TableWaitingPayment
}
