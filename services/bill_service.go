package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ponto-de-fuga/restaurant-api/models"
	"gorm.io/gorm"
)

// DefaultBillTokenTTL is how long a bill link stays valid.
const DefaultBillTokenTTL = 2 * time.Hour

const billTokenBytes = 32

// Bill is the customer-facing read-only projection of a table.
type Bill struct {
	Table  models.Table   `json:"table"`
	Orders []models.Order `json:"orders"`
}

// BillService mints and resolves bill access tokens.
type BillService struct {
	db  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

// NewBillService creates a bill service; ttl <= 0 uses DefaultBillTokenTTL.
func NewBillService(db *gorm.DB, ttl time.Duration) *BillService {
	if ttl <= 0 {
		ttl = DefaultBillTokenTTL
	}
	return &BillService{db: db, TTL: ttl, Now: systemClock}
}

// Issue mints a new token for tableID once the table has been opened, closed
// tables included. Earlier tokens stay valid until their own expiry.
func (s *BillService) Issue(ctx context.Context, id Identity, tableID string) (*models.BillToken, error) {
	if err := id.Require(models.RoleWaiter, models.RoleAdmin); err != nil {
		return nil, err
	}

	var table models.Table
	if err := findTable(s.db.WithContext(ctx), tableID, &table); err != nil {
		return nil, wrapStoreError("load table", err)
	}
	if !ValidTableTransition(ActionRequestBill, table.Status) {
		return nil, Errorf(ErrInvalidTransition, "cannot request the bill of a table that is %s", table.Status)
	}

	token, err := newBillToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate bill token: %w", err)
	}
	now := s.Now()
	record := models.BillToken{
		Token:     token,
		TableID:   table.ID,
		ExpiresAt: now.Add(s.TTL),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to store bill token: %w", err)
	}

	billTokensIssued.Inc()
	slog.Info("Bill token issued", "table_id", table.ID, "expires_at", record.ExpiresAt)
	return &record, nil
}

// Resolve returns the bill for tableID when token was issued for that exact
// table and has not expired. Table status does not matter.
func (s *BillService) Resolve(ctx context.Context, tableID, token string) (*Bill, error) {
	if tableID == "" || token == "" {
		billResolutions.WithLabelValues("invalid").Inc()
		return nil, Errorf(ErrInvalidInput, "Table ID and token are required")
	}

	db := s.db.WithContext(ctx)
	var record models.BillToken
	if err := db.Where("token = ? AND table_id = ?", token, tableID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			billResolutions.WithLabelValues("not_found").Inc()
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to load bill token: %w", err)
	}
	if record.ExpiredAt(s.Now()) {
		billResolutions.WithLabelValues("expired").Inc()
		return nil, ErrTokenExpired
	}

	var bill Bill
	if err := findTable(db, tableID, &bill.Table); err != nil {
		return nil, wrapStoreError("load table", err)
	}
	err := db.Preload("MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("table_id = ?", tableID).
		Order("created_at asc").
		Find(&bill.Orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load bill orders: %w", err)
	}
	if bill.Orders == nil {
		bill.Orders = []models.Order{}
	}
	if bill.Table.Active() {
		bill.Table.TotalAmount = models.SumOrders(bill.Orders)
	}

	billResolutions.WithLabelValues("ok").Inc()
	return &bill, nil
}

// newBillToken returns 256 random bits, base64url encoded without padding.
func newBillToken() (string, error) {
	buf := make([]byte, billTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
