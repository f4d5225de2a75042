package models

import (
	"time"

	"github.com/finadmin/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
// Line items and the derived payment list are stored as JSONB documents on
// the invoice row; they are only ever read and written as wholes.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerName  string                `gorm:"type:varchar(200);not null;index"`
	CustomerEmail string                `gorm:"type:varchar(200)"`
	Items         finance.LineItems     `gorm:"type:jsonb;default:'[]'"`
	Subtotal      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TaxAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status        finance.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	IssueDate     time.Time             `gorm:"not null;index"`
	DueDate       *time.Time            `gorm:"index"`
	Notes         string                `gorm:"type:text"`
	PaymentIDs    finance.PaymentRefs   `gorm:"type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	return &finance.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		CustomerName:      m.CustomerName,
		CustomerEmail:     m.CustomerEmail,
		Items:             m.Items,
		Subtotal:          m.Subtotal,
		TaxAmount:         m.TaxAmount,
		TotalAmount:       m.TotalAmount,
		Status:            m.Status,
		IssueDate:         m.IssueDate,
		DueDate:           m.DueDate,
		Notes:             m.Notes,
		PaymentIDs:        m.PaymentIDs,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *finance.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerName = inv.CustomerName
	m.CustomerEmail = inv.CustomerEmail
	m.Items = inv.Items
	m.Subtotal = inv.Subtotal
	m.TaxAmount = inv.TaxAmount
	m.TotalAmount = inv.TotalAmount
	m.Status = inv.Status
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Notes = inv.Notes
	m.PaymentIDs = inv.PaymentIDs
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// BillModel is the persistence model for the Bill aggregate root.
type BillModel struct {
	AggregateModel
	BillNumber string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	VendorName string             `gorm:"type:varchar(200);not null;index"`
	Amount     decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Status     finance.BillStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	BillDate   time.Time          `gorm:"not null;index"`
	DueDate    *time.Time         `gorm:"index"`
	Category   string             `gorm:"type:varchar(100);index"`
	Notes      string             `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill entity.
func (m *BillModel) ToDomain() *finance.Bill {
	return &finance.Bill{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BillNumber:        m.BillNumber,
		VendorName:        m.VendorName,
		Amount:            m.Amount,
		Status:            m.Status,
		BillDate:          m.BillDate,
		DueDate:           m.DueDate,
		Category:          m.Category,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Bill entity.
func (m *BillModel) FromDomain(b *finance.Bill) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.BillNumber = b.BillNumber
	m.VendorName = b.VendorName
	m.Amount = b.Amount
	m.Status = b.Status
	m.BillDate = b.BillDate
	m.DueDate = b.DueDate
	m.Category = b.Category
	m.Notes = b.Notes
}

// BillModelFromDomain creates a new persistence model from a domain Bill.
func BillModelFromDomain(b *finance.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(b)
	return m
}

// PaymentModel is the persistence model for the Payment aggregate root.
// The tagged domain target maps to a pair of nullable columns; at most one
// of InvoiceID/BillID is ever set.
type PaymentModel struct {
	AggregateModel
	Amount      decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	PaymentDate time.Time           `gorm:"not null;index"`
	Mode        finance.PaymentMode `gorm:"type:varchar(20);not null;index"`
	Reference   string              `gorm:"type:varchar(200)"`
	Notes       string              `gorm:"type:text"`
	InvoiceID   *uuid.UUID          `gorm:"type:uuid;index"`
	BillID      *uuid.UUID          `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *finance.Payment {
	target := finance.NoTarget()
	switch {
	case m.InvoiceID != nil:
		target = finance.InvoiceTarget(*m.InvoiceID)
	case m.BillID != nil:
		target = finance.BillTarget(*m.BillID)
	}

	return &finance.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Amount:            m.Amount,
		PaymentDate:       m.PaymentDate,
		Mode:              m.Mode,
		Reference:         m.Reference,
		Notes:             m.Notes,
		Target:            target,
	}
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Amount = p.Amount
	m.PaymentDate = p.PaymentDate
	m.Mode = p.Mode
	m.Reference = p.Reference
	m.Notes = p.Notes
	m.InvoiceID = nil
	m.BillID = nil
	switch p.Target.Kind {
	case finance.TargetKindInvoice:
		id := p.Target.ID
		m.InvoiceID = &id
	case finance.TargetKindBill:
		id := p.Target.ID
		m.BillID = &id
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// NumberSequenceModel backs atomic document number generation. One row per
// sequence name; the repository increments value with an atomic upsert.
type NumberSequenceModel struct {
	Name  string `gorm:"type:varchar(50);primary_key"`
	Value int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (NumberSequenceModel) TableName() string {
	return "number_sequences"
}
