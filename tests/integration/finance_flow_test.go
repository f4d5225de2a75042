package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	financeapp "github.com/finadmin/backend/internal/application/finance"
	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/finadmin/backend/internal/infrastructure/cache"
	"github.com/finadmin/backend/internal/infrastructure/persistence"
)

// FinanceTestSetup wires real repositories and services against a
// containerized PostgreSQL database.
type FinanceTestSetup struct {
	DB             *TestDB
	InvoiceService *financeapp.InvoiceService
	BillService    *financeapp.BillService
	PaymentService *financeapp.PaymentService
	InvoiceRepo    *persistence.GormInvoiceRepository
	BillRepo       *persistence.GormBillRepository
	PaymentRepo    *persistence.GormPaymentRepository
}

func setupFinanceTest(t *testing.T) *FinanceTestSetup {
	t.Helper()

	testDB := NewTestDB(t)
	logger := zap.NewNop()

	invoiceRepo := persistence.NewGormInvoiceRepository(testDB.DB)
	billRepo := persistence.NewGormBillRepository(testDB.DB)
	paymentRepo := persistence.NewGormPaymentRepository(testDB.DB)

	idemStore := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() {
		idemStore.Close()
	})
	idemConfig := shared.IdempotencyConfig{Enabled: true, TTL: time.Minute}

	return &FinanceTestSetup{
		DB:             testDB,
		InvoiceService: financeapp.NewInvoiceService(invoiceRepo, paymentRepo, logger),
		BillService:    financeapp.NewBillService(billRepo, paymentRepo, logger),
		PaymentService: financeapp.NewPaymentService(paymentRepo, invoiceRepo, billRepo, idemStore, idemConfig, logger),
		InvoiceRepo:    invoiceRepo,
		BillRepo:       billRepo,
		PaymentRepo:    paymentRepo,
	}
}

// createTestInvoice creates a SENT invoice with a single line of
// quantity x unitPrice at taxRate percent.
func (s *FinanceTestSetup) createTestInvoice(t *testing.T, customer string, quantity, unitPrice, taxRate int64) *financeapp.InvoiceResponse {
	t.Helper()

	resp, err := s.InvoiceService.CreateInvoice(context.Background(), financeapp.CreateInvoiceRequest{
		CustomerName:  customer,
		CustomerEmail: "billing@example.com",
		Items: []financeapp.LineItemRequest{
			{
				Description: "Consulting services",
				Quantity:    decimal.NewFromInt(quantity),
				UnitPrice:   decimal.NewFromInt(unitPrice),
				TaxRate:     decimal.NewFromInt(taxRate),
			},
		},
		Status: "SENT",
	})
	require.NoError(t, err)
	return resp
}

func TestInvoiceLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := setupFinanceTest(t)
	ctx := context.Background()

	t.Run("create invoice with generated number and derived totals", func(t *testing.T) {
		resp := setup.createTestInvoice(t, "Acme Corp", 10, 100, 18)

		assert.Equal(t, "INV-00001", resp.InvoiceNumber)
		assert.Equal(t, "SENT", resp.Status)
		assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(1000)),
			"subtotal = %s", resp.Subtotal)
		assert.True(t, resp.TaxAmount.Equal(decimal.NewFromInt(180)),
			"tax = %s", resp.TaxAmount)
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(1180)),
			"total = %s", resp.TotalAmount)
		assert.Empty(t, resp.PaymentIDs)
	})

	t.Run("invoice numbers are sequential", func(t *testing.T) {
		resp := setup.createTestInvoice(t, "Beta LLC", 1, 50, 0)
		assert.Equal(t, "INV-00002", resp.InvoiceNumber)
	})

	t.Run("get invoice round-trips line items", func(t *testing.T) {
		created := setup.createTestInvoice(t, "Gamma Inc", 3, 200, 10)

		fetched, err := setup.InvoiceService.GetInvoiceByID(ctx, created.ID)
		require.NoError(t, err)

		require.Len(t, fetched.Items, 1)
		assert.Equal(t, "Consulting services", fetched.Items[0].Description)
		assert.True(t, fetched.Items[0].Amount.Equal(decimal.NewFromInt(600)))
		assert.True(t, fetched.TotalAmount.Equal(decimal.NewFromInt(660)))
	})

	t.Run("list filters by status and customer", func(t *testing.T) {
		_, err := setup.InvoiceService.CreateInvoice(ctx, financeapp.CreateInvoiceRequest{
			CustomerName: "Draft Customer",
			Items: []financeapp.LineItemRequest{
				{Description: "Draft work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
			},
		})
		require.NoError(t, err)

		drafts, total, err := setup.InvoiceService.ListInvoices(ctx, financeapp.InvoiceListFilter{
			Status: "DRAFT", Page: 1, PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, drafts, 1)
		assert.Equal(t, "Draft Customer", drafts[0].CustomerName)

		byCustomer, total, err := setup.InvoiceService.ListInvoices(ctx, financeapp.InvoiceListFilter{
			Customer: "Acme", Page: 1, PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, byCustomer, 1)
		assert.Equal(t, "Acme Corp", byCustomer[0].CustomerName)
	})

	t.Run("update recomputes totals from new items", func(t *testing.T) {
		created := setup.createTestInvoice(t, "Delta Co", 2, 100, 0)

		updated, err := setup.InvoiceService.UpdateInvoice(ctx, created.ID, financeapp.UpdateInvoiceRequest{
			Items: []financeapp.LineItemRequest{
				{Description: "Revised scope", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(100), TaxRate: decimal.NewFromInt(20)},
			},
		})
		require.NoError(t, err)

		assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(500)))
		assert.True(t, updated.TaxAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(600)))
		assert.Greater(t, updated.Version, created.Version)
	})

	t.Run("delete invoice without payments", func(t *testing.T) {
		created := setup.createTestInvoice(t, "Ephemeral Ltd", 1, 10, 0)

		err := setup.InvoiceService.DeleteInvoice(ctx, created.ID)
		require.NoError(t, err)

		_, err = setup.InvoiceService.GetInvoiceByID(ctx, created.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPaymentFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := setupFinanceTest(t)
	ctx := context.Background()

	// 10 x 100 at 10% tax = 1100 total
	invoice := setup.createTestInvoice(t, "Acme Corp", 10, 100, 10)

	t.Run("partial payment moves invoice to PARTIALLY_PAID", func(t *testing.T) {
		payment, err := setup.PaymentService.RecordPayment(ctx, financeapp.RecordPaymentRequest{
			Amount:    decimal.NewFromInt(500),
			Mode:      "BANK_TRANSFER",
			Reference: "TXN-001",
			InvoiceID: &invoice.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "INVOICE", payment.TargetKind)
		require.NotNil(t, payment.TargetID)
		assert.Equal(t, invoice.ID, *payment.TargetID)

		fetched, err := setup.InvoiceService.GetInvoiceByID(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "PARTIALLY_PAID", fetched.Status)
		assert.Len(t, fetched.PaymentIDs, 1)
	})

	t.Run("payment covering the balance moves invoice to PAID", func(t *testing.T) {
		_, err := setup.PaymentService.RecordPayment(ctx, financeapp.RecordPaymentRequest{
			Amount:    decimal.NewFromInt(600),
			Mode:      "UPI",
			Reference: "TXN-002",
			InvoiceID: &invoice.ID,
		})
		require.NoError(t, err)

		fetched, err := setup.InvoiceService.GetInvoiceByID(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "PAID", fetched.Status)
		assert.Len(t, fetched.PaymentIDs, 2)
	})

	t.Run("deleting an invoice with payments is rejected", func(t *testing.T) {
		err := setup.InvoiceService.DeleteInvoice(ctx, invoice.ID)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVOICE_HAS_PAYMENTS", domainErr.Code)
	})

	t.Run("deleting a payment re-derives the invoice status", func(t *testing.T) {
		payments, _, err := setup.PaymentService.ListPayments(ctx, financeapp.PaymentListFilter{
			InvoiceID: &invoice.ID, Page: 1, PageSize: 10,
		})
		require.NoError(t, err)
		require.Len(t, payments, 2)

		err = setup.PaymentService.DeletePayment(ctx, payments[1].ID)
		require.NoError(t, err)

		fetched, err := setup.InvoiceService.GetInvoiceByID(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Len(t, fetched.PaymentIDs, 1)
	})

	t.Run("standalone payment has no target", func(t *testing.T) {
		payment, err := setup.PaymentService.RecordPayment(ctx, financeapp.RecordPaymentRequest{
			Amount: decimal.NewFromInt(75),
			Mode:   "CASH",
			Notes:  "walk-in payment",
		})
		require.NoError(t, err)
		assert.Equal(t, "NONE", payment.TargetKind)
		assert.Nil(t, payment.TargetID)
	})
}

func TestPaymentIdempotency(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := setupFinanceTest(t)
	ctx := context.Background()

	invoice := setup.createTestInvoice(t, "Acme Corp", 1, 1000, 0)

	req := financeapp.RecordPaymentRequest{
		Amount:         decimal.NewFromInt(400),
		Mode:           "CARD",
		Reference:      "TXN-RETRY",
		InvoiceID:      &invoice.ID,
		IdempotencyKey: "client-key-42",
	}

	_, err := setup.PaymentService.RecordPayment(ctx, req)
	require.NoError(t, err)

	// Same key again must be rejected without creating a second payment
	_, err = setup.PaymentService.RecordPayment(ctx, req)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "DUPLICATE_REQUEST", domainErr.Code)

	payments, total, err := setup.PaymentService.ListPayments(ctx, financeapp.PaymentListFilter{
		InvoiceID: &invoice.ID, Page: 1, PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, payments, 1)
}

func TestBillFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := setupFinanceTest(t)
	ctx := context.Background()

	t.Run("create bill with generated number", func(t *testing.T) {
		billDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		resp, err := setup.BillService.CreateBill(ctx, financeapp.CreateBillRequest{
			VendorName: "Office Supplies Ltd",
			Amount:     decimal.NewFromInt(480),
			Status:     "SUBMITTED",
			BillDate:   &billDate,
			Category:   "office",
		})
		require.NoError(t, err)

		assert.Equal(t, "BILL-00001", resp.BillNumber)
		assert.Equal(t, "SUBMITTED", resp.Status)
		assert.True(t, resp.Amount.Equal(decimal.NewFromInt(480)))
	})

	t.Run("mark bill paid", func(t *testing.T) {
		created, err := setup.BillService.CreateBill(ctx, financeapp.CreateBillRequest{
			VendorName: "Cloud Hosting Inc",
			Amount:     decimal.NewFromInt(1200),
			Status:     "APPROVED",
			Category:   "infrastructure",
		})
		require.NoError(t, err)

		paid, err := setup.BillService.MarkBillPaid(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "PAID", paid.Status)

		// Marking again is rejected
		_, err = setup.BillService.MarkBillPaid(ctx, created.ID)
		require.Error(t, err)
	})

	t.Run("bill payment settles the bill", func(t *testing.T) {
		created, err := setup.BillService.CreateBill(ctx, financeapp.CreateBillRequest{
			VendorName: "Utilities Board",
			Amount:     decimal.NewFromInt(300),
			Status:     "APPROVED",
			Category:   "utilities",
		})
		require.NoError(t, err)

		payment, err := setup.PaymentService.RecordPayment(ctx, financeapp.RecordPaymentRequest{
			Amount: decimal.NewFromInt(300),
			Mode:   "BANK_TRANSFER",
			BillID: &created.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "BILL", payment.TargetKind)

		fetched, err := setup.BillService.GetBillByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "PAID", fetched.Status)
	})

	t.Run("list filters by category", func(t *testing.T) {
		bills, total, err := setup.BillService.ListBills(ctx, financeapp.BillListFilter{
			Category: "office", Page: 1, PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, bills, 1)
		assert.Equal(t, "Office Supplies Ltd", bills[0].VendorName)
	})
}
