package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItem is a dish or drink that can be ordered.
type MenuItem struct {
	Base
	Name        string          `gorm:"not null" json:"name"`
	Description *string         `gorm:"type:text" json:"description,omitempty"`
	Category    string          `gorm:"not null;index" json:"category,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Available   bool            `gorm:"not null" json:"available"`
	ImageS3Key  *string         `json:"image_s3_key,omitempty"`
	ImageURL    *string         `gorm:"-" json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}

// Insumo is a stock item tracked by the kitchen.
type Insumo struct {
	Base
	Nome            string          `gorm:"not null" json:"nome"`
	UnidadeDeMedida string          `gorm:"type:varchar(16);not null" json:"unidade_de_medida"`
	QuantidadeAtual decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"quantidade_atual"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Insumo model
func (Insumo) TableName() string {
	return "insumos"
}

// Unit is a restaurant branch that staff belong to.
type Unit struct {
	Base
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Unit model
func (Unit) TableName() string {
	return "units"
}
