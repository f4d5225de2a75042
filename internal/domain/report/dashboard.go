package report

import (
	"context"
	"time"

	"github.com/finadmin/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// Period selects how far back the payments-in-period figure reaches
type Period string

const (
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Normalize maps unknown period values to the month default
func (p Period) Normalize() Period {
	switch p {
	case PeriodMonth, PeriodQuarter, PeriodYear:
		return p
	}
	return PeriodMonth
}

// Months returns how many months back the period reaches
func (p Period) Months() int {
	switch p.Normalize() {
	case PeriodQuarter:
		return 3
	case PeriodYear:
		return 12
	}
	return 1
}

// DashboardReport is the read model served by the reporting aggregator.
// Every figure is computed from scalar SQL aggregations; no documents are
// loaded or stored.
type DashboardReport struct {
	TotalRevenue           decimal.Decimal                `json:"total_revenue"`
	OutstandingReceivables decimal.Decimal                `json:"outstanding_receivables"`
	OutstandingBills       decimal.Decimal                `json:"outstanding_bills"`
	PaymentsInPeriod       decimal.Decimal                `json:"payments_in_period"`
	Period                 Period                         `json:"period"`
	InvoiceCounts          map[finance.InvoiceStatus]int64 `json:"invoice_counts"`
	OverdueCount           int64                          `json:"overdue_count"`
	DraftCount             int64                          `json:"draft_count"`
	RevenueSeries          []RevenuePoint                 `json:"revenue_series"`
}

// RevenuePoint is one month of PAID invoice revenue, labelled "Jan 2026" style
type RevenuePoint struct {
	Label   string          `json:"label"`
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// MonthlyRevenue is a raw month bucket as returned by the repository
type MonthlyRevenue struct {
	Year    int
	Month   int
	Revenue decimal.Decimal
}

// StatusCount is a raw per-status invoice count as returned by the repository
type StatusCount struct {
	Status finance.InvoiceStatus
	Count  int64
}

// DashboardRepository defines the aggregation queries behind the dashboard
type DashboardRepository interface {
	// SumPaidInvoices sums total_amount over all PAID invoices
	SumPaidInvoices(ctx context.Context) (decimal.Decimal, error)

	// SumOutstandingInvoices sums total_amount over invoices whose status is
	// neither PAID nor CANCELLED
	SumOutstandingInvoices(ctx context.Context) (decimal.Decimal, error)

	// SumOutstandingBills sums amount over bills whose status is neither
	// PAID nor REJECTED
	SumOutstandingBills(ctx context.Context) (decimal.Decimal, error)

	// SumPaymentsSince sums payment amounts with payment_date >= since
	SumPaymentsSince(ctx context.Context, since time.Time) (decimal.Decimal, error)

	// CountInvoicesByStatus counts invoices grouped by status
	CountInvoicesByStatus(ctx context.Context) ([]StatusCount, error)

	// MonthlyPaidRevenue sums PAID invoice totals grouped by issue month,
	// for issue dates in [from, to)
	MonthlyPaidRevenue(ctx context.Context, from, to time.Time) ([]MonthlyRevenue, error)
}
