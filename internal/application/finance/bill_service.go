package finance

import (
	"context"
	"errors"
	"time"

	"github.com/finadmin/backend/internal/domain/finance"
	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/finadmin/backend/internal/domain/shared/valueobject"
	"github.com/finadmin/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillService provides application-level vendor bill operations
type BillService struct {
	billRepo    finance.BillRepository
	paymentRepo finance.PaymentRepository
	logger      *zap.Logger
}

// NewBillService creates a new BillService
func NewBillService(
	billRepo finance.BillRepository,
	paymentRepo finance.PaymentRepository,
	logger *zap.Logger,
) *BillService {
	return &BillService{
		billRepo:    billRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// CreateBillRequest represents a request to create a vendor bill
type CreateBillRequest struct {
	VendorName string          `json:"vendor_name" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Status     string          `json:"status"`
	BillDate   *time.Time      `json:"bill_date"`
	DueDate    *time.Time      `json:"due_date"`
	Category   string          `json:"category"`
	Notes      string          `json:"notes"`
}

// UpdateBillRequest represents a request to update a vendor bill.
// All fields are optional.
type UpdateBillRequest struct {
	VendorName *string          `json:"vendor_name"`
	Amount     *decimal.Decimal `json:"amount"`
	Status     *string          `json:"status"`
	BillDate   *time.Time       `json:"bill_date"`
	DueDate    *time.Time       `json:"due_date"`
	Category   *string          `json:"category"`
	Notes      *string          `json:"notes"`
}

// BillListFilter defines filtering options for bill list queries
type BillListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status"`
	Vendor   string     `form:"vendor"`
	Category string     `form:"category"`
	FromDate *time.Time `form:"from_date"`
	ToDate   *time.Time `form:"to_date"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID         uuid.UUID       `json:"id"`
	BillNumber string          `json:"bill_number"`
	VendorName string          `json:"vendor_name"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	BillDate   time.Time       `json:"bill_date"`
	DueDate    *time.Time      `json:"due_date,omitempty"`
	Category   string          `json:"category,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Version    int             `json:"version"`
}

// CreateBill creates a new bill with an atomically drawn bill number
func (s *BillService) CreateBill(ctx context.Context, req CreateBillRequest) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "create")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrVendorName, req.VendorName,
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	billNumber, err := s.billRepo.GenerateBillNumber(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to generate bill number", zap.Error(err))
		return nil, err
	}

	var billDate time.Time
	if req.BillDate != nil {
		billDate = *req.BillDate
	}

	bill, err := finance.NewBill(
		billNumber,
		req.VendorName,
		valueobject.NewMoney(req.Amount),
		finance.BillStatus(req.Status),
		billDate,
		req.DueDate,
		req.Category,
		req.Notes,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.billRepo.Save(ctx, bill); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to save bill",
			zap.String("bill_number", billNumber),
			zap.Error(err))
		return nil, err
	}

	telemetry.AddEvent(span, "bill_created",
		telemetry.SpanAttrBillID, bill.ID.String(),
		telemetry.SpanAttrBillNumber, bill.BillNumber,
	)
	s.logger.Info("Bill created",
		zap.String("bill_id", bill.ID.String()),
		zap.String("bill_number", bill.BillNumber),
		zap.String("amount", bill.Amount.String()))

	return toBillResponse(bill), nil
}

// GetBillByID gets a bill by ID
func (s *BillService) GetBillByID(ctx context.Context, id uuid.UUID) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "get")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrBillID, id.String())

	bill, err := s.billRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}
	return toBillResponse(bill), nil
}

// ListBills lists bills with filtering and pagination
func (s *BillService) ListBills(ctx context.Context, filter BillListFilter) ([]BillResponse, int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "list")
	defer span.End()

	domainFilter := finance.BillFilter{
		Vendor:   filter.Vendor,
		Category: filter.Category,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir

	if filter.Status != "" {
		status := finance.BillStatus(filter.Status)
		if !status.IsValid() {
			err := shared.NewDomainError("INVALID_STATUS", "Invalid bill status filter: "+filter.Status)
			telemetry.RecordError(span, err)
			return nil, 0, err
		}
		domainFilter.Status = &status
	}

	bills, err := s.billRepo.FindAll(ctx, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	total, err := s.billRepo.Count(ctx, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	responses := make([]BillResponse, len(bills))
	for i := range bills {
		responses[i] = *toBillResponse(&bills[i])
	}

	telemetry.SetAttribute(span, "result_count", len(responses))
	return responses, total, nil
}

// UpdateBill updates a bill
func (s *BillService) UpdateBill(ctx context.Context, id uuid.UUID, req UpdateBillRequest) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "update")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrBillID, id.String())

	bill, err := s.billRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}

	if req.VendorName != nil {
		if *req.VendorName == "" {
			err := shared.NewDomainError("INVALID_VENDOR_NAME", "Vendor name cannot be empty")
			telemetry.RecordError(span, err)
			return nil, err
		}
		bill.VendorName = *req.VendorName
	}
	if req.Amount != nil {
		if err := bill.ChangeAmount(valueobject.NewMoney(*req.Amount)); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if req.BillDate != nil {
		bill.BillDate = *req.BillDate
	}
	if req.DueDate != nil {
		bill.DueDate = req.DueDate
	}
	if req.Category != nil {
		bill.Category = *req.Category
	}
	if req.Notes != nil {
		bill.Notes = *req.Notes
	}

	if req.Status != nil {
		if err := bill.ChangeStatus(finance.BillStatus(*req.Status)); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	bill.Touch()
	if err := s.billRepo.Save(ctx, bill); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to update bill",
			zap.String("bill_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Bill updated",
		zap.String("bill_id", bill.ID.String()),
		zap.String("status", string(bill.Status)))

	return toBillResponse(bill), nil
}

// MarkBillPaid marks a bill as paid outright. Marking an already paid bill
// is a no-op.
func (s *BillService) MarkBillPaid(ctx context.Context, id uuid.UUID) (*BillResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "mark_paid")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrBillID, id.String())

	bill, err := s.billRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}

	if bill.IsPaid() {
		return toBillResponse(bill), nil
	}

	bill.MarkPaid()

	if err := s.billRepo.SaveWithLock(ctx, bill); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to mark bill as paid",
			zap.String("bill_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	telemetry.AddEvent(span, "bill_paid",
		telemetry.SpanAttrBillNumber, bill.BillNumber,
	)
	s.logger.Info("Bill marked as paid",
		zap.String("bill_id", bill.ID.String()),
		zap.String("bill_number", bill.BillNumber))

	return toBillResponse(bill), nil
}

// DeleteBill deletes a bill. Bills referenced by payments cannot be
// deleted; delete the payments first.
func (s *BillService) DeleteBill(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "bill", "delete")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrBillID, id.String())

	if _, err := s.billRepo.FindByID(ctx, id); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return err
	}

	hasPayments, err := s.paymentRepo.ExistsByBillID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if hasPayments {
		err := shared.NewDomainError("BILL_HAS_PAYMENTS", "Cannot delete a bill with recorded payments")
		telemetry.RecordError(span, err)
		return err
	}

	if err := s.billRepo.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.logger.Info("Bill deleted", zap.String("bill_id", id.String()))
	return nil
}

func toBillResponse(b *finance.Bill) *BillResponse {
	return &BillResponse{
		ID:         b.ID,
		BillNumber: b.BillNumber,
		VendorName: b.VendorName,
		Amount:     b.Amount,
		Status:     string(b.Status),
		BillDate:   b.BillDate,
		DueDate:    b.DueDate,
		Category:   b.Category,
		Notes:      b.Notes,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
		Version:    b.Version,
	}
}
