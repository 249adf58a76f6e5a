package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Amounts go over the wire as JSON numbers, matching the bill page contract.
	decimal.MarshalJSONWithoutQuotes = true
}

// Base carries the UUID primary key shared by every table.
type Base struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
}

// BeforeCreate assigns a UUID when the caller did not set one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every model for AutoMigrate, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Unit{},
		&Profile{},
		&MenuItem{},
		&Insumo{},
		&Table{},
		&Order{},
		&BillToken{},
		&ConsentRecord{},
	}
}
