package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"uppercase ASC", "ASC", "ASC"},
		{"lowercase asc", "asc", "ASC"},
		{"mixed case", "Asc", "ASC"},
		{"with whitespace", "  asc  ", "ASC"},
		{"uppercase DESC", "DESC", "DESC"},
		{"lowercase desc", "desc", "DESC"},
		{"empty defaults to DESC", "", "DESC"},
		{"garbage defaults to DESC", "sideways", "DESC"},
		{"injection attempt defaults to DESC", "ASC; DROP TABLE invoices", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowed  map[string]bool
		expected string
	}{
		{"allowed field passes", "invoice_number", InvoiceSortFields, "invoice_number"},
		{"empty falls back to default", "", InvoiceSortFields, "created_at"},
		{"whitespace falls back to default", "   ", InvoiceSortFields, "created_at"},
		{"unknown field falls back to default", "password", InvoiceSortFields, "created_at"},
		{"injection attempt falls back to default", "created_at; DROP TABLE invoices", InvoiceSortFields, "created_at"},
		{"bill field passes", "vendor_name", BillSortFields, "vendor_name"},
		{"payment field passes", "payment_date", PaymentSortFields, "payment_date"},
		{"invoice field not valid for payments", "invoice_number", PaymentSortFields, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, tt.allowed, "created_at"))
		})
	}
}

func TestSortFieldWhitelists(t *testing.T) {
	t.Run("invoice whitelist covers sortable columns", func(t *testing.T) {
		for _, field := range []string{"created_at", "invoice_number", "customer_name", "status", "issue_date", "due_date", "total_amount"} {
			assert.True(t, InvoiceSortFields[field], "expected %s to be sortable", field)
		}
	})

	t.Run("bill whitelist covers sortable columns", func(t *testing.T) {
		for _, field := range []string{"created_at", "bill_number", "vendor_name", "status", "bill_date", "category", "amount"} {
			assert.True(t, BillSortFields[field], "expected %s to be sortable", field)
		}
	})

	t.Run("payment whitelist covers sortable columns", func(t *testing.T) {
		for _, field := range []string{"created_at", "payment_date", "mode", "amount", "reference"} {
			assert.True(t, PaymentSortFields[field], "expected %s to be sortable", field)
		}
	})
}
