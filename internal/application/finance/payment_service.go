package finance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/finadmin/backend/internal/domain/finance"
	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/finadmin/backend/internal/domain/shared/valueobject"
	"github.com/finadmin/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxSyncRetries bounds the optimistic-lock retry loop when re-deriving an
// invoice's payment status. Each retry re-reads the invoice, so a conflict
// means another writer already applied a newer payment sum.
const maxSyncRetries = 3

// invoiceLocks serializes payment recording per invoice. Two payments for
// different invoices proceed in parallel; two for the same invoice queue up.
// Entries are reference counted and evicted when the last holder unlocks, so
// the map does not grow with the number of invoices ever paid.
type invoiceLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*invoiceLock
}

type invoiceLock struct {
	sync.Mutex
	refs int
}

func newInvoiceLocks() *invoiceLocks {
	return &invoiceLocks{locks: make(map[uuid.UUID]*invoiceLock)}
}

func (l *invoiceLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &invoiceLock{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()

		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// PaymentService provides application-level payment operations.
// Payments are immutable: they can be recorded and deleted, never updated.
type PaymentService struct {
	paymentRepo finance.PaymentRepository
	invoiceRepo finance.InvoiceRepository
	billRepo    finance.BillRepository
	idemStore   shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	locks       *invoiceLocks
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService. idemStore may be nil, in
// which case idempotency keys are ignored.
func NewPaymentService(
	paymentRepo finance.PaymentRepository,
	invoiceRepo finance.InvoiceRepository,
	billRepo finance.BillRepository,
	idemStore shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		billRepo:    billRepo,
		idemStore:   idemStore,
		idemConfig:  idemConfig,
		locks:       newInvoiceLocks(),
		logger:      logger,
	}
}

// RecordPaymentRequest represents a request to record a payment. A payment
// targets at most one document: an invoice, a bill, or nothing.
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate *time.Time      `json:"payment_date"`
	Mode        string          `json:"mode" binding:"required"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
	InvoiceID   *uuid.UUID      `json:"invoice_id"`
	BillID      *uuid.UUID      `json:"bill_id"`

	// IdempotencyKey is set from the Idempotency-Key header, not the body
	IdempotencyKey string `json:"-"`
}

// PaymentListFilter defines filtering options for payment list queries
type PaymentListFilter struct {
	InvoiceID *uuid.UUID `form:"invoice_id"`
	BillID    *uuid.UUID `form:"bill_id"`
	Mode      string     `form:"mode"`
	FromDate  *time.Time `form:"from_date"`
	ToDate    *time.Time `form:"to_date"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Mode        string          `json:"mode"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	TargetKind  string          `json:"target_kind"`
	TargetID    *uuid.UUID      `json:"target_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RecordPayment records a payment and applies its side effects. The payment
// itself is always created when valid; the linked-document effects are
// best-effort:
//   - invoice target: the invoice's paid total is re-derived from all of its
//     payments and its status moves to PAID or PARTIALLY_PAID accordingly.
//     A dangling invoice reference is logged and skipped.
//   - bill target: the bill is marked paid outright. Failures are logged
//     and never undo the payment.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrAmount, req.Amount.String(),
		telemetry.SpanAttrPaymentMode, req.Mode,
	)

	if req.InvoiceID != nil && req.BillID != nil {
		err := shared.NewDomainError("INVALID_TARGET", "Payment cannot target both an invoice and a bill")
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.checkIdempotency(ctx, req.IdempotencyKey); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	target := finance.NoTarget()
	switch {
	case req.InvoiceID != nil:
		target = finance.InvoiceTarget(*req.InvoiceID)
	case req.BillID != nil:
		target = finance.BillTarget(*req.BillID)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrTargetKind, string(target.Kind))

	var paymentDate time.Time
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	payment, err := finance.NewPayment(
		valueobject.NewMoney(req.Amount),
		paymentDate,
		finance.PaymentMode(req.Mode),
		req.Reference,
		req.Notes,
		target,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		s.releaseIdempotency(ctx, req.IdempotencyKey)
		return nil, err
	}

	if err := s.paymentRepo.Save(ctx, payment); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to save payment", zap.Error(err))
		s.releaseIdempotency(ctx, req.IdempotencyKey)
		return nil, err
	}

	telemetry.AddEvent(span, "payment_recorded",
		telemetry.SpanAttrPaymentID, payment.ID.String(),
	)

	switch {
	case target.IsInvoice():
		if err := s.syncInvoicePayments(ctx, target.ID); err != nil {
			// The payment stands; the invoice catches up on the next sync
			telemetry.AddEvent(span, "invoice_sync_failed",
				telemetry.SpanAttrInvoiceID, target.ID.String(),
			)
			s.logger.Error("Failed to sync invoice after payment",
				zap.String("payment_id", payment.ID.String()),
				zap.String("invoice_id", target.ID.String()),
				zap.Error(err))
		}
	case target.IsBill():
		s.settleBill(ctx, payment.ID, target.ID)
	}

	s.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("target_kind", string(target.Kind)))

	return toPaymentResponse(payment), nil
}

// GetPaymentByID gets a payment by ID
func (s *PaymentService) GetPaymentByID(ctx context.Context, id uuid.UUID) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "get")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, id.String())

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}
	return toPaymentResponse(payment), nil
}

// ListPayments lists payments with filtering and pagination
func (s *PaymentService) ListPayments(ctx context.Context, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "list")
	defer span.End()

	domainFilter := finance.PaymentFilter{
		InvoiceID: filter.InvoiceID,
		BillID:    filter.BillID,
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir

	if filter.Mode != "" {
		mode := finance.PaymentMode(filter.Mode)
		if !mode.IsValid() {
			err := shared.NewDomainError("INVALID_MODE", "Invalid payment mode filter: "+filter.Mode)
			telemetry.RecordError(span, err)
			return nil, 0, err
		}
		domainFilter.Mode = &mode
	}

	payments, err := s.paymentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	total, err := s.paymentRepo.Count(ctx, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = *toPaymentResponse(&payments[i])
	}

	telemetry.SetAttribute(span, "result_count", len(responses))
	return responses, total, nil
}

// DeletePayment deletes a payment. If the payment targeted an invoice, the
// invoice's paid total and payment list are re-derived from the remaining
// payments; an invoice already marked PAID keeps that status. Bill effects
// are never reversed.
func (s *PaymentService) DeletePayment(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "delete")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrPaymentID, id.String())

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return err
	}

	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if payment.Target.IsInvoice() {
		if err := s.syncInvoicePayments(ctx, payment.Target.ID); err != nil {
			telemetry.AddEvent(span, "invoice_sync_failed",
				telemetry.SpanAttrInvoiceID, payment.Target.ID.String(),
			)
			s.logger.Error("Failed to sync invoice after payment deletion",
				zap.String("payment_id", id.String()),
				zap.String("invoice_id", payment.Target.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Payment deleted", zap.String("payment_id", id.String()))
	return nil
}

// checkIdempotency rejects a request whose idempotency key was already seen
func (s *PaymentService) checkIdempotency(ctx context.Context, key string) error {
	if key == "" || s.idemStore == nil || !s.idemConfig.Enabled {
		return nil
	}

	fresh, err := s.idemStore.MarkProcessed(ctx, key, s.idemConfig.TTL)
	if err != nil {
		// A broken store must not block payment intake
		s.logger.Warn("Idempotency store unavailable, accepting request",
			zap.String("idempotency_key", key),
			zap.Error(err))
		return nil
	}
	if !fresh {
		return shared.NewDomainError("DUPLICATE_REQUEST", "A payment with this idempotency key was already recorded")
	}
	return nil
}

// releaseIdempotency returns a claimed key to the store after a failed
// recording, so a retry with the same key is not rejected as a duplicate.
func (s *PaymentService) releaseIdempotency(ctx context.Context, key string) {
	if key == "" || s.idemStore == nil || !s.idemConfig.Enabled {
		return
	}
	if err := s.idemStore.Release(ctx, key); err != nil {
		s.logger.Warn("Failed to release idempotency key",
			zap.String("idempotency_key", key),
			zap.Error(err))
	}
}

// syncInvoicePayments re-derives an invoice's payment list and status from
// the payments table. Recording runs inside a per-invoice critical section,
// and the save still uses optimistic locking so writers outside this
// process are caught; on a version conflict the invoice is re-read and the
// derivation retried.
func (s *PaymentService) syncInvoicePayments(ctx context.Context, invoiceID uuid.UUID) error {
	unlock := s.locks.lock(invoiceID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxSyncRetries; attempt++ {
		invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// Dangling reference: the payment stays, the sync is skipped
				s.logger.Warn("Payment references a missing invoice",
					zap.String("invoice_id", invoiceID.String()))
				return nil
			}
			return err
		}

		payments, err := s.paymentRepo.FindByInvoiceID(ctx, invoiceID)
		if err != nil {
			return err
		}

		total, err := s.paymentRepo.SumByInvoiceID(ctx, invoiceID)
		if err != nil {
			return err
		}

		paymentIDs := make([]uuid.UUID, len(payments))
		for i := range payments {
			paymentIDs[i] = payments[i].ID
		}

		invoice.SyncPayments(paymentIDs, valueobject.NewMoney(total))

		err = s.invoiceRepo.SaveWithLock(ctx, invoice)
		if err == nil {
			s.logger.Debug("Invoice payment status derived",
				zap.String("invoice_id", invoiceID.String()),
				zap.String("status", string(invoice.Status)),
				zap.String("total_paid", total.String()),
				zap.Int("payments", len(paymentIDs)))
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// settleBill marks a bill as paid after a payment targeted it. Failures are
// logged and swallowed: the payment record is the source of truth.
func (s *PaymentService) settleBill(ctx context.Context, paymentID, billID uuid.UUID) {
	bill, err := s.billRepo.FindByID(ctx, billID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Payment references a missing bill",
				zap.String("payment_id", paymentID.String()),
				zap.String("bill_id", billID.String()))
			return
		}
		s.logger.Error("Failed to load bill after payment",
			zap.String("payment_id", paymentID.String()),
			zap.String("bill_id", billID.String()),
			zap.Error(err))
		return
	}

	if bill.IsPaid() {
		return
	}

	bill.MarkPaid()
	if err := s.billRepo.SaveWithLock(ctx, bill); err != nil {
		s.logger.Error("Failed to mark bill as paid after payment",
			zap.String("payment_id", paymentID.String()),
			zap.String("bill_id", billID.String()),
			zap.Error(err))
		return
	}

	s.logger.Info("Bill settled by payment",
		zap.String("payment_id", paymentID.String()),
		zap.String("bill_id", billID.String()),
		zap.String("bill_number", bill.BillNumber))
}

func toPaymentResponse(p *finance.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:          p.ID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate,
		Mode:        string(p.Mode),
		Reference:   p.Reference,
		Notes:       p.Notes,
		TargetKind:  string(p.Target.Kind),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Target.IsLinked() {
		targetID := p.Target.ID
		resp.TargetID = &targetID
	}
	return resp
}
