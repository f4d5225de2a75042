package finance

import (
	"fmt"
	"time"

	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/finadmin/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BillStatus represents the approval/payment status of a vendor bill
type BillStatus string

const (
	BillStatusDraft     BillStatus = "DRAFT"
	BillStatusSubmitted BillStatus = "SUBMITTED"
	BillStatusApproved  BillStatus = "APPROVED"
	BillStatusScheduled BillStatus = "SCHEDULED"
	BillStatusPaid      BillStatus = "PAID"
	BillStatusRejected  BillStatus = "REJECTED"
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusDraft, BillStatusSubmitted, BillStatusApproved,
		BillStatusScheduled, BillStatusPaid, BillStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of BillStatus
func (s BillStatus) String() string {
	return string(s)
}

// IsOutstanding returns true if the bill still counts toward payables
func (s BillStatus) IsOutstanding() bool {
	return s != BillStatusPaid && s != BillStatusRejected
}

// Bill represents a vendor bill aggregate root.
// Bills carry a single amount with no line items; any payment targeting a
// bill settles it outright, there is no partial-payment arithmetic.
type Bill struct {
	shared.BaseAggregateRoot
	BillNumber string          `json:"bill_number"`
	VendorName string          `json:"vendor_name"`
	Amount     decimal.Decimal `json:"amount"`
	Status     BillStatus      `json:"status"`
	BillDate   time.Time       `json:"bill_date"`
	DueDate    *time.Time      `json:"due_date"`
	Category   string          `json:"category"`
	Notes      string          `json:"notes"`
}

// NewBill creates a new vendor bill
func NewBill(
	billNumber string,
	vendorName string,
	amount valueobject.Money,
	status BillStatus,
	billDate time.Time,
	dueDate *time.Time,
	category string,
	notes string,
) (*Bill, error) {
	if billNumber == "" {
		return nil, shared.NewDomainError("INVALID_BILL_NUMBER", "Bill number cannot be empty")
	}
	if vendorName == "" {
		return nil, shared.NewDomainError("INVALID_VENDOR_NAME", "Vendor name cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Bill amount cannot be negative")
	}
	if status == "" {
		status = BillStatusDraft
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid bill status: %s", status))
	}
	if billDate.IsZero() {
		billDate = time.Now()
	}

	b := &Bill{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BillNumber:        billNumber,
		VendorName:        vendorName,
		Amount:            amount.Amount(),
		Status:            status,
		BillDate:          billDate,
		DueDate:           dueDate,
		Category:          category,
		Notes:             notes,
	}

	b.AddDomainEvent(NewBillCreatedEvent(b))

	return b, nil
}

// ChangeStatus sets the status directly (manual transition)
func (b *Bill) ChangeStatus(status BillStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Invalid bill status: %s", status))
	}

	b.Status = status
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// ChangeAmount updates the bill amount
func (b *Bill) ChangeAmount(amount valueobject.Money) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Bill amount cannot be negative")
	}

	b.Amount = amount.Amount()
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// MarkPaid marks the bill as settled, regardless of the paying amount.
// Marking an already-paid bill is a no-op.
func (b *Bill) MarkPaid() {
	if b.Status == BillStatusPaid {
		return
	}

	b.Status = BillStatusPaid
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBillPaidEvent(b))
}

// GetAmountMoney returns the amount as a Money value object
func (b *Bill) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoney(b.Amount)
}

// IsPaid returns true if the bill is settled
func (b *Bill) IsPaid() bool {
	return b.Status == BillStatusPaid
}
