package finance

import (
	"context"
	"time"

	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	Status   *InvoiceStatus // Filter by status
	Customer string         // Filter by customer name substring
	FromDate *time.Time     // Filter by issue date range start
	ToDate   *time.Time     // Filter by issue date range end
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its invoice number
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindAll finds invoices with filtering and pagination
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter InvoiceFilter) (int64, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check).
	// Returns shared.ErrConcurrencyConflict if the stored version moved.
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// Delete removes an invoice
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByNumber checks if an invoice number is already taken
	ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error)

	// GenerateInvoiceNumber atomically draws the next invoice number
	GenerateInvoiceNumber(ctx context.Context) (string, error)
}

// BillFilter defines filtering options for bill queries
type BillFilter struct {
	shared.Filter
	Status   *BillStatus // Filter by status
	Vendor   string      // Filter by vendor name substring
	Category string      // Filter by category
	FromDate *time.Time  // Filter by bill date range start
	ToDate   *time.Time  // Filter by bill date range end
}

// BillRepository defines the interface for bill persistence
type BillRepository interface {
	// FindByID finds a bill by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindByNumber finds a bill by its bill number
	FindByNumber(ctx context.Context, billNumber string) (*Bill, error)

	// FindAll finds bills with filtering and pagination
	FindAll(ctx context.Context, filter BillFilter) ([]Bill, error)

	// Count counts bills matching the filter
	Count(ctx context.Context, filter BillFilter) (int64, error)

	// Save creates or updates a bill
	Save(ctx context.Context, bill *Bill) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, bill *Bill) error

	// Delete removes a bill
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByNumber checks if a bill number is already taken
	ExistsByNumber(ctx context.Context, billNumber string) (bool, error)

	// GenerateBillNumber atomically draws the next bill number
	GenerateBillNumber(ctx context.Context) (string, error)
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	shared.Filter
	InvoiceID *uuid.UUID   // Filter by linked invoice
	BillID    *uuid.UUID   // Filter by linked bill
	Mode      *PaymentMode // Filter by payment mode
	FromDate  *time.Time   // Filter by payment date range start
	ToDate    *time.Time   // Filter by payment date range end
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindAll finds payments with filtering and pagination
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, error)

	// FindByInvoiceID finds all payments linked to an invoice
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)

	// Count counts payments matching the filter
	Count(ctx context.Context, filter PaymentFilter) (int64, error)

	// Save creates a payment record
	Save(ctx context.Context, payment *Payment) error

	// Delete removes a payment record
	Delete(ctx context.Context, id uuid.UUID) error

	// SumByInvoiceID sums the amounts of all payments linked to an invoice
	SumByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)

	// ExistsByInvoiceID checks if any payment references the invoice
	ExistsByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (bool, error)

	// ExistsByBillID checks if any payment references the bill
	ExistsByBillID(ctx context.Context, billID uuid.UUID) (bool, error)
}
