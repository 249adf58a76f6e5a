package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesReport aggregates the tables closed in [Start, End].
type SalesReport struct {
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	TablesClosed  int             `json:"tables_closed"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}

// ReportService computes admin reports.
type ReportService struct {
	db *gorm.DB
}

// NewReportService creates a report service backed by db.
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Sales sums total_amount over closed tables whose closed_at falls in range.
func (s *ReportService) Sales(ctx context.Context, id Identity, start, end time.Time) (*SalesReport, error) {
	if err := id.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, Errorf(ErrInvalidInput, "End date must not be before start date")
	}
	start, end = start.UTC(), end.UTC()

	var tables []models.Table
	err := s.db.WithContext(ctx).
		Select("id", "total_amount").
		Where("status = ? AND closed_at >= ? AND closed_at <= ?", models.TableClosed, start, end).
		Find(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load closed tables: %w", err)
	}

	report := &SalesReport{Start: start, End: end, TablesClosed: len(tables), TotalSales: decimal.Zero, AverageTicket: decimal.Zero}
	for _, t := range tables {
		report.TotalSales = report.TotalSales.Add(t.TotalAmount)
	}
	if len(tables) > 0 {
		report.AverageTicket = report.TotalSales.Div(decimal.NewFromInt(int64(len(tables)))).Round(2)
	}
	return report, nil
}
