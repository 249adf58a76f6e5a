package models

import "time"

// BillToken grants time-limited read access to one table's bill.
type BillToken struct {
	Base
	Token     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	TableID   string    `gorm:"type:varchar(36);not null;index" json:"table_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the BillToken model
func (BillToken) TableName() string {
	return "bill_tokens"
}

// ExpiredAt reports whether the token is no longer valid at now.
func (b *BillToken) ExpiredAt(now time.Time) bool {
	return now.After(b.ExpiresAt)
}

// ConsentRecord is an append-only marketing opt-in/opt-out captured at bill time.
type ConsentRecord struct {
	Base
	TableID      string    `gorm:"type:varchar(36);not null;index:idx_consent_table_created" json:"table_id"`
	ConsentGiven bool      `gorm:"not null" json:"consent_given"`
	Phone        *string   `gorm:"type:varchar(32)" json:"phone"`
	CreatedAt    time.Time `gorm:"index:idx_consent_table_created" json:"created_at"`
}

// TableName specifies the table name for the ConsentRecord model
func (ConsentRecord) TableName() string {
	return "consent_log"
}
