package finance

import (
	"fmt"
	"time"

	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/finadmin/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMode represents how a payment was made
type PaymentMode string

const (
	PaymentModeBankTransfer PaymentMode = "BANK_TRANSFER"
	PaymentModeUPI          PaymentMode = "UPI"
	PaymentModeCash         PaymentMode = "CASH"
	PaymentModeCard         PaymentMode = "CARD"
)

// IsValid checks if the mode is a valid PaymentMode
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeBankTransfer, PaymentModeUPI, PaymentModeCash, PaymentModeCard:
		return true
	}
	return false
}

// String returns the string representation of PaymentMode
func (m PaymentMode) String() string {
	return string(m)
}

// TargetKind discriminates what a payment settles
type TargetKind string

const (
	TargetKindInvoice TargetKind = "INVOICE"
	TargetKindBill    TargetKind = "BILL"
	TargetKindNone    TargetKind = "NONE"
)

// PaymentTarget is a tagged reference to the document a payment settles.
// A payment targets at most one document; the zero value is an unlinked
// target.
type PaymentTarget struct {
	Kind TargetKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// InvoiceTarget links a payment to an invoice
func InvoiceTarget(id uuid.UUID) PaymentTarget {
	return PaymentTarget{Kind: TargetKindInvoice, ID: id}
}

// BillTarget links a payment to a bill
func BillTarget(id uuid.UUID) PaymentTarget {
	return PaymentTarget{Kind: TargetKindBill, ID: id}
}

// NoTarget is an unlinked payment target
func NoTarget() PaymentTarget {
	return PaymentTarget{Kind: TargetKindNone}
}

// IsInvoice returns true if the target is an invoice
func (t PaymentTarget) IsInvoice() bool {
	return t.Kind == TargetKindInvoice
}

// IsBill returns true if the target is a bill
func (t PaymentTarget) IsBill() bool {
	return t.Kind == TargetKindBill
}

// IsLinked returns true if the payment settles a document
func (t PaymentTarget) IsLinked() bool {
	return t.Kind == TargetKindInvoice || t.Kind == TargetKindBill
}

// Validate checks the target for internal consistency
func (t PaymentTarget) Validate() error {
	switch t.Kind {
	case TargetKindInvoice, TargetKindBill:
		if t.ID == uuid.Nil {
			return shared.NewDomainError("INVALID_TARGET", fmt.Sprintf("%s target requires a document ID", t.Kind))
		}
		return nil
	case TargetKindNone, "":
		if t.ID != uuid.Nil {
			return shared.NewDomainError("INVALID_TARGET", "Unlinked payment cannot carry a document ID")
		}
		return nil
	}
	return shared.NewDomainError("INVALID_TARGET", fmt.Sprintf("Unknown payment target kind: %s", t.Kind))
}

// Payment represents a recorded payment. Payments are immutable after
// creation: they can be recorded and deleted, never updated.
type Payment struct {
	shared.BaseAggregateRoot
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Mode        PaymentMode     `json:"mode"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
	Target      PaymentTarget   `json:"target"`
}

// NewPayment records a new payment
func NewPayment(
	amount valueobject.Money,
	paymentDate time.Time,
	mode PaymentMode,
	reference string,
	notes string,
	target PaymentTarget,
) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_MODE", fmt.Sprintf("Invalid payment mode: %s", mode))
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if target.Kind == "" {
		target = NoTarget()
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Amount:            amount.Amount(),
		PaymentDate:       paymentDate,
		Mode:              mode,
		Reference:         reference,
		Notes:             notes,
		Target:            target,
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// GetAmountMoney returns the amount as a Money value object
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoney(p.Amount)
}
