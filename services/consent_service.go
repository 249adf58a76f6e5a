package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/utils"
	"gorm.io/gorm"
)

const (
	DefaultConsentWindow = 5 * time.Minute
	DefaultConsentLimit  = 3
)

// ConsentInput is a customer's answer to the marketing opt-in on the bill page.
type ConsentInput struct {
	TableID      string
	ConsentGiven bool
	Phone        string
}

// ConsentService appends to the consent log with a per-table throttle.
type ConsentService struct {
	db     *gorm.DB
	events EventBus
	Window time.Duration
	Limit  int
	Now    func() time.Time
}

// NewConsentService creates a consent service with the default throttle.
func NewConsentService(db *gorm.DB, events EventBus) *ConsentService {
	return &ConsentService{
		db:     db,
		events: events,
		Window: DefaultConsentWindow,
		Limit:  DefaultConsentLimit,
		Now:    systemClock,
	}
}

// Submit validates and records a consent answer. Recording the first answer
// moves an occupied table to waiting_payment.
func (s *ConsentService) Submit(ctx context.Context, in ConsentInput) (*models.ConsentRecord, error) {
	if strings.TrimSpace(in.TableID) == "" {
		consentSubmissions.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidInput
	}
	var phone *string
	if in.ConsentGiven {
		if strings.TrimSpace(in.Phone) == "" {
			consentSubmissions.WithLabelValues("invalid").Inc()
			return nil, ErrPhoneRequired
		}
		if !utils.ValidPhone(in.Phone) {
			consentSubmissions.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidPhone
		}
		normalized := utils.NormalizePhone(in.Phone)
		phone = &normalized
	}

	now := s.Now()
	record := models.ConsentRecord{
		TableID:      in.TableID,
		ConsentGiven: in.ConsentGiven,
		Phone:        phone,
		CreatedAt:    now,
	}
	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTable(tx, in.TableID, &table); err != nil {
			if errors.Is(err, ErrTableNotFound) {
				return ErrInvalidTable
			}
			return err
		}
		next, err := NextTableStatus(ActionConsent, table.Status)
		if err != nil {
			return ErrInvalidTableState
		}

		var recent int64
		err = tx.Model(&models.ConsentRecord{}).
			Where("table_id = ? AND created_at >= ?", in.TableID, now.Add(-s.Window)).
			Count(&recent).Error
		if err != nil {
			return err
		}
		if recent >= int64(s.Limit) {
			return ErrTooManyConsents
		}

		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if next != table.Status {
			if err := tx.Model(&table).Update("status", next).Error; err != nil {
				return err
			}
			table.Status = next
		}
		return nil
	})
	if err != nil {
		consentSubmissions.WithLabelValues(outcomeOf(err)).Inc()
		return nil, wrapStoreError("record consent", err)
	}

	consentSubmissions.WithLabelValues("recorded").Inc()
	slog.Info("Consent recorded", "table_id", table.ID, "consent_given", in.ConsentGiven, "record_id", record.ID)
	s.events.Publish(ctx, tableEvent("update", table.ID, string(table.Status), now))
	return &record, nil
}

func outcomeOf(err error) string {
	switch KindOf(err) {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "invalid_state"
	case KindTooManyRequests:
		return "throttled"
	case 0:
		return "error"
	}
	return "invalid"
}
