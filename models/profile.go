package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the capability a staff profile holds.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleWaiter  Role = "waiter"
	RoleKitchen Role = "kitchen"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleWaiter, RoleKitchen:
		return true
	}
	return false
}

// KitchenNamePrefix marks profiles that are shared kitchen terminals.
const KitchenNamePrefix = "KITCHEN-"

// Profile represents a staff account. AuthID is the bearer token subject;
// for locally issued tokens it equals ID.
type Profile struct {
	Base
	AuthID       string         `gorm:"uniqueIndex;not null" json:"auth_id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	FullName     string         `gorm:"not null" json:"full_name"`
	Role         Role           `gorm:"type:varchar(16);not null;default:'waiter'" json:"role"`
	UnitID       *string        `gorm:"type:varchar(36);index" json:"unit_id"`
	Unit         *Unit          `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	PasswordHash string         `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}
