package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/finadmin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsOutstanding returns true if the invoice still counts toward receivables
func (s InvoiceStatus) IsOutstanding() bool {
	return s != InvoiceStatusPaid && s != InvoiceStatusCancelled
}

// AllInvoiceStatuses lists every valid invoice status, used by reporting to
// emit zero-valued counts for statuses with no invoices
func AllInvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSent,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCancelled,
	}
}

// LineItem is a value object within the Invoice aggregate.
// Amount is always derived as Quantity * UnitPrice; caller-supplied values
// are ignored.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"` // percent, e.g. 18 for 18%
	Amount      decimal.Decimal `json:"amount"`   // pre-tax, derived
}

// NewLineItem creates a line item with the amount derived from quantity and price
func NewLineItem(description string, quantity, unitPrice, taxRate decimal.Decimal) (LineItem, error) {
	if description == "" {
		return LineItem{}, shared.NewDomainError("INVALID_LINE_ITEM", "Line item description cannot be empty")
	}
	if quantity.IsNegative() {
		return LineItem{}, shared.NewDomainError("INVALID_LINE_ITEM", "Line item quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return LineItem{}, shared.NewDomainError("INVALID_LINE_ITEM", "Line item unit price cannot be negative")
	}
	if taxRate.IsNegative() {
		return LineItem{}, shared.NewDomainError("INVALID_LINE_ITEM", "Line item tax rate cannot be negative")
	}
	return LineItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TaxRate:     taxRate,
		Amount:      quantity.Mul(unitPrice),
	}, nil
}

// TaxAmount returns the tax portion of this line
func (li LineItem) TaxAmount() decimal.Decimal {
	return li.Amount.Mul(li.TaxRate).Div(decimal.NewFromInt(100))
}

// LineItems implements GORM Scanner/Valuer for JSONB storage
type LineItems []LineItem

// Value implements driver.Valuer
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(data) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(data, l)
}

// PaymentRefs is the list of payment IDs linked to an invoice, stored as JSONB.
// It is a derived index over the payments table, rebuilt whenever a linked
// payment is recorded or deleted.
type PaymentRefs []uuid.UUID

// Value implements driver.Valuer
func (p PaymentRefs) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner
func (p *PaymentRefs) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRefs{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to scan PaymentRefs: unsupported type")
	}

	if len(data) == 0 {
		*p = PaymentRefs{}
		return nil
	}

	return json.Unmarshal(data, p)
}

// Invoice represents a customer invoice aggregate root.
// Subtotal, TaxAmount and TotalAmount are always derived from Items; they are
// never accepted from callers.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Items         LineItems       `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        InvoiceStatus   `json:"status"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       *time.Time      `json:"due_date"`
	Notes         string          `json:"notes"`
	PaymentIDs    PaymentRefs     `json:"payment_ids"`
}

// NewInvoice creates a new invoice with derived totals
func NewInvoice(
	invoiceNumber string,
	customerName string,
	customerEmail string,
	items []LineItem,
	status InvoiceStatus,
	issueDate time.Time,
	dueDate *time.Time,
	notes string,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if status == "" {
		status = InvoiceStatusDraft
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid invoice status: %s", status))
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		CustomerName:      customerName,
		CustomerEmail:     customerEmail,
		Items:             LineItems(items),
		Status:            status,
		IssueDate:         issueDate,
		DueDate:           dueDate,
		Notes:             notes,
		PaymentIDs:        PaymentRefs{},
	}
	inv.recalculateTotals()

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// recalculateTotals derives subtotal, tax and total from the current items
func (inv *Invoice) recalculateTotals() {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.Amount)
		tax = tax.Add(item.TaxAmount())
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = tax
	inv.TotalAmount = subtotal.Add(tax)
}

// ReplaceItems swaps the invoice's line items and re-derives all totals.
// An empty slice is rejected here; callers wanting to keep existing items
// simply do not call ReplaceItems.
func (inv *Invoice) ReplaceItems(items []LineItem) error {
	if len(items) == 0 {
		return shared.NewDomainError("INVALID_ITEMS", "Invoice must have at least one line item")
	}

	inv.Items = LineItems(items)
	inv.recalculateTotals()
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// ChangeStatus sets the status directly (manual transition)
func (inv *Invoice) ChangeStatus(status InvoiceStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid invoice status: %s", status))
	}

	inv.Status = status
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// SyncPayments replaces the derived payment list and re-derives the payment
// status from the summed amount:
//
//	totalPaid >= total  -> PAID
//	0 < totalPaid       -> PARTIALLY_PAID
//	totalPaid == 0      -> status unchanged
//
// Derivation alone never moves a PAID invoice backwards; only a manual
// ChangeStatus can do that.
func (inv *Invoice) SyncPayments(paymentIDs []uuid.UUID, totalPaid valueobject.Money) {
	inv.PaymentIDs = PaymentRefs(paymentIDs)

	total := valueobject.NewMoney(inv.TotalAmount)
	switch {
	case totalPaid.IsPositive() && totalPaid.GreaterThanOrEqual(total):
		if inv.Status != InvoiceStatusPaid {
			inv.Status = InvoiceStatusPaid
			inv.AddDomainEvent(NewInvoicePaidEvent(inv, totalPaid))
		}
	case totalPaid.IsPositive():
		if inv.Status != InvoiceStatusPaid {
			inv.Status = InvoiceStatusPartiallyPaid
			inv.AddDomainEvent(NewInvoicePartiallyPaidEvent(inv, totalPaid))
		}
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
}

// HasPayments returns true if any payments are linked to this invoice
func (inv *Invoice) HasPayments() bool {
	return len(inv.PaymentIDs) > 0
}

// GetTotalAmountMoney returns the total as a Money value object
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoney(inv.TotalAmount)
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsCancelled returns true if the invoice is cancelled
func (inv *Invoice) IsCancelled() bool {
	return inv.Status == InvoiceStatusCancelled
}
