package report

import (
	"context"
	"time"

	"github.com/finadmin/backend/internal/domain/finance"
	"github.com/finadmin/backend/internal/domain/report"
	"github.com/finadmin/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// revenueSeriesMonths is how many months the dashboard revenue series spans,
// current month included. Months without PAID invoices appear as zero.
const revenueSeriesMonths = 6

// ReportService aggregates dashboard figures across invoices, bills and
// payments. It only reads; every figure comes from a scalar SQL aggregation.
type ReportService struct {
	dashboardRepo report.DashboardRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewReportService creates a new ReportService using the wall clock
func NewReportService(dashboardRepo report.DashboardRepository, logger *zap.Logger) *ReportService {
	return NewReportServiceWithClock(dashboardRepo, logger, time.Now)
}

// NewReportServiceWithClock creates a ReportService with an injected clock.
// Period boundaries and series labels are computed from the supplied clock.
func NewReportServiceWithClock(dashboardRepo report.DashboardRepository, logger *zap.Logger, now func() time.Time) *ReportService {
	return &ReportService{
		dashboardRepo: dashboardRepo,
		logger:        logger,
		now:           now,
	}
}

// GetDashboard computes the dashboard report. The period parameter only
// affects the payments-in-period figure; unknown values fall back to month.
func (s *ReportService) GetDashboard(ctx context.Context, period report.Period) (*report.DashboardReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "dashboard")
	defer span.End()

	period = period.Normalize()
	now := s.now()
	telemetry.SetAttribute(span, "period", string(period))

	totalRevenue, err := s.dashboardRepo.SumPaidInvoices(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	outstandingReceivables, err := s.dashboardRepo.SumOutstandingInvoices(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	outstandingBills, err := s.dashboardRepo.SumOutstandingBills(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	since := now.AddDate(0, -period.Months(), 0)
	paymentsInPeriod, err := s.dashboardRepo.SumPaymentsSince(ctx, since)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	statusCounts, err := s.dashboardRepo.CountInvoicesByStatus(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Zero-fill so every status is present even with no invoices
	counts := make(map[finance.InvoiceStatus]int64, len(finance.AllInvoiceStatuses()))
	for _, status := range finance.AllInvoiceStatuses() {
		counts[status] = 0
	}
	for _, sc := range statusCounts {
		counts[sc.Status] = sc.Count
	}

	series, err := s.revenueSeries(ctx, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Debug("Dashboard report computed",
		zap.String("period", string(period)),
		zap.String("total_revenue", totalRevenue.String()),
		zap.String("payments_in_period", paymentsInPeriod.String()))

	return &report.DashboardReport{
		TotalRevenue:           totalRevenue,
		OutstandingReceivables: outstandingReceivables,
		OutstandingBills:       outstandingBills,
		PaymentsInPeriod:       paymentsInPeriod,
		Period:                 period,
		InvoiceCounts:          counts,
		OverdueCount:           counts[finance.InvoiceStatusOverdue],
		DraftCount:             counts[finance.InvoiceStatusDraft],
		RevenueSeries:          series,
	}, nil
}

// revenueSeries builds the trailing monthly revenue series ending at the
// current month. The series always has exactly revenueSeriesMonths entries
// in chronological order.
func (s *ReportService) revenueSeries(ctx context.Context, now time.Time) ([]report.RevenuePoint, error) {
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	from := currentMonth.AddDate(0, -(revenueSeriesMonths - 1), 0)
	to := currentMonth.AddDate(0, 1, 0)

	buckets, err := s.dashboardRepo.MonthlyPaidRevenue(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[[2]int]report.MonthlyRevenue, len(buckets))
	for _, b := range buckets {
		byMonth[[2]int{b.Year, b.Month}] = b
	}

	series := make([]report.RevenuePoint, 0, revenueSeriesMonths)
	for i := 0; i < revenueSeriesMonths; i++ {
		month := from.AddDate(0, i, 0)
		point := report.RevenuePoint{
			Label: month.Format("Jan 2006"),
			Year:  month.Year(),
			Month: month.Month(),
		}
		if b, ok := byMonth[[2]int{month.Year(), int(month.Month())}]; ok {
			point.Revenue = b.Revenue
		}
		series = append(series, point)
	}
	return series, nil
}
