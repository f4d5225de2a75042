package finance

import (
	"context"
	"errors"
	"time"

	"github.com/finadmin/backend/internal/domain/finance"
	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/finadmin/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	invoiceRepo finance.InvoiceRepository
	paymentRepo finance.PaymentRepository
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo finance.InvoiceRepository,
	paymentRepo finance.PaymentRepository,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// LineItemRequest represents a single invoice line in a request
type LineItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreateInvoiceRequest represents a request to create an invoice.
// Subtotal, tax and total are derived from the items and never accepted
// from the caller.
type CreateInvoiceRequest struct {
	CustomerName  string           `json:"customer_name" binding:"required"`
	CustomerEmail string           `json:"customer_email"`
	Items         []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Status        string           `json:"status"`
	IssueDate     *time.Time       `json:"issue_date"`
	DueDate       *time.Time       `json:"due_date"`
	Notes         string           `json:"notes"`
}

// UpdateInvoiceRequest represents a request to update an invoice.
// All fields are optional; totals are recomputed only when items are present.
type UpdateInvoiceRequest struct {
	CustomerName  *string           `json:"customer_name"`
	CustomerEmail *string           `json:"customer_email"`
	Items         []LineItemRequest `json:"items" binding:"omitempty,dive"`
	Status        *string           `json:"status"`
	IssueDate     *time.Time        `json:"issue_date"`
	DueDate       *time.Time        `json:"due_date"`
	Notes         *string           `json:"notes"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status"`
	Customer string     `form:"customer"`
	FromDate *time.Time `form:"from_date"`
	ToDate   *time.Time `form:"to_date"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir"`
}

// LineItemResponse represents an invoice line in API responses
type LineItemResponse struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID          `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	Items         []LineItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	TaxAmount     decimal.Decimal    `json:"tax_amount"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Status        string             `json:"status"`
	IssueDate     time.Time          `json:"issue_date"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	PaymentIDs    []uuid.UUID        `json:"payment_ids"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Version       int                `json:"version"`
}

// CreateInvoice creates a new invoice with an atomically drawn invoice number
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerName, req.CustomerName,
		"items_count", len(req.Items),
	)

	items, err := toLineItems(req.Items)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to generate invoice number", zap.Error(err))
		return nil, err
	}

	var issueDate time.Time
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	invoice, err := finance.NewInvoice(
		invoiceNumber,
		req.CustomerName,
		req.CustomerEmail,
		items,
		finance.InvoiceStatus(req.Status),
		issueDate,
		req.DueDate,
		req.Notes,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to save invoice",
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return nil, err
	}

	telemetry.AddEvent(span, "invoice_created",
		telemetry.SpanAttrInvoiceID, invoice.ID.String(),
		telemetry.SpanAttrInvoiceNumber, invoice.InvoiceNumber,
	)
	s.logger.Info("Invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("total_amount", invoice.TotalAmount.String()))

	return toInvoiceResponse(invoice), nil
}

// GetInvoiceByID gets an invoice by ID
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "get")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, id.String())

	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}
	return toInvoiceResponse(invoice), nil
}

// ListInvoices lists invoices with filtering and pagination
func (s *InvoiceService) ListInvoices(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list")
	defer span.End()

	domainFilter := finance.InvoiceFilter{
		Customer: filter.Customer,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir

	if filter.Status != "" {
		status := finance.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			err := shared.NewDomainError("INVALID_STATUS", "Invalid invoice status filter: "+filter.Status)
			telemetry.RecordError(span, err)
			return nil, 0, err
		}
		domainFilter.Status = &status
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	total, err := s.invoiceRepo.Count(ctx, domainFilter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}

	telemetry.SetAttribute(span, "result_count", len(responses))
	return responses, total, nil
}

// UpdateInvoice updates an invoice. Totals are recomputed only when the
// request carries a non-empty item list; an absent or empty list leaves the
// stored items and totals untouched.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, id.String())

	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}

	if req.CustomerName != nil {
		if *req.CustomerName == "" {
			err := shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
			telemetry.RecordError(span, err)
			return nil, err
		}
		invoice.CustomerName = *req.CustomerName
	}
	if req.CustomerEmail != nil {
		invoice.CustomerEmail = *req.CustomerEmail
	}
	if req.IssueDate != nil {
		invoice.IssueDate = *req.IssueDate
	}
	if req.DueDate != nil {
		invoice.DueDate = req.DueDate
	}
	if req.Notes != nil {
		invoice.Notes = *req.Notes
	}

	if len(req.Items) > 0 {
		items, err := toLineItems(req.Items)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := invoice.ReplaceItems(items); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if req.Status != nil {
		if err := invoice.ChangeStatus(finance.InvoiceStatus(*req.Status)); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	invoice.Touch()
	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to update invoice",
			zap.String("invoice_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Invoice updated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("status", string(invoice.Status)))

	return toInvoiceResponse(invoice), nil
}

// DeleteInvoice deletes an invoice. Invoices referenced by payments cannot
// be deleted; delete the payments first.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, id.String())

	if _, err := s.invoiceRepo.FindByID(ctx, id); err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return err
	}

	hasPayments, err := s.paymentRepo.ExistsByInvoiceID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if hasPayments {
		err := shared.NewDomainError("INVOICE_HAS_PAYMENTS", "Cannot delete an invoice with recorded payments")
		telemetry.RecordError(span, err)
		return err
	}

	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.logger.Info("Invoice deleted", zap.String("invoice_id", id.String()))
	return nil
}

// ===================== Helper Functions =====================

func toLineItems(reqs []LineItemRequest) ([]finance.LineItem, error) {
	items := make([]finance.LineItem, 0, len(reqs))
	for _, r := range reqs {
		item, err := finance.NewLineItem(r.Description, r.Quantity, r.UnitPrice, r.TaxRate)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func toInvoiceResponse(inv *finance.Invoice) *InvoiceResponse {
	items := make([]LineItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = LineItemResponse{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
			Amount:      item.Amount,
		}
	}

	return &InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		CustomerEmail: inv.CustomerEmail,
		Items:         items,
		Subtotal:      inv.Subtotal,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		Status:        string(inv.Status),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		PaymentIDs:    inv.PaymentIDs,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}
