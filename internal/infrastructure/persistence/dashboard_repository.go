package persistence

import (
	"context"
	"time"

	"github.com/finadmin/backend/internal/domain/finance"
	"github.com/finadmin/backend/internal/domain/report"
	"github.com/finadmin/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormDashboardRepository implements report.DashboardRepository using GORM.
// Every method is a scalar aggregation over the document tables; no rows are
// materialized into domain aggregates.
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// SumPaidInvoices sums total_amount over all PAID invoices
func (r *GormDashboardRepository) SumPaidInvoices(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(total_amount), 0) as total").
		Where("status = ?", finance.InvoiceStatusPaid).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumOutstandingInvoices sums total_amount over invoices that are neither
// PAID nor CANCELLED
func (r *GormDashboardRepository) SumOutstandingInvoices(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(total_amount), 0) as total").
		Where("status NOT IN ?", []finance.InvoiceStatus{finance.InvoiceStatusPaid, finance.InvoiceStatusCancelled}).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumOutstandingBills sums amount over bills that are neither PAID nor REJECTED
func (r *GormDashboardRepository) SumOutstandingBills(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("status NOT IN ?", []finance.BillStatus{finance.BillStatusPaid, finance.BillStatusRejected}).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumPaymentsSince sums payment amounts with payment_date >= since
func (r *GormDashboardRepository) SumPaymentsSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("payment_date >= ?", since).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// CountInvoicesByStatus counts invoices grouped by status
func (r *GormDashboardRepository) CountInvoicesByStatus(ctx context.Context) ([]report.StatusCount, error) {
	var rows []struct {
		Status finance.InvoiceStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make([]report.StatusCount, len(rows))
	for i, row := range rows {
		counts[i] = report.StatusCount{Status: row.Status, Count: row.Count}
	}
	return counts, nil
}

// MonthlyPaidRevenue sums PAID invoice totals grouped by issue month for
// issue dates in [from, to)
func (r *GormDashboardRepository) MonthlyPaidRevenue(ctx context.Context, from, to time.Time) ([]report.MonthlyRevenue, error) {
	var rows []struct {
		Year    int
		Month   int
		Revenue decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select(`
			EXTRACT(YEAR FROM issue_date)::int as year,
			EXTRACT(MONTH FROM issue_date)::int as month,
			COALESCE(SUM(total_amount), 0) as revenue
		`).
		Where("status = ?", finance.InvoiceStatusPaid).
		Where("issue_date >= ? AND issue_date < ?", from, to).
		Group("EXTRACT(YEAR FROM issue_date), EXTRACT(MONTH FROM issue_date)").
		Order("year ASC, month ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	buckets := make([]report.MonthlyRevenue, len(rows))
	for i, row := range rows {
		buckets[i] = report.MonthlyRevenue{Year: row.Year, Month: row.Month, Revenue: row.Revenue}
	}
	return buckets, nil
}
