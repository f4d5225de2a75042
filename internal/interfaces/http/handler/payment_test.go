package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	financeapp "github.com/finadmin/backend/internal/application/finance"
	"github.com/finadmin/backend/internal/domain/finance"
	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/finadmin/backend/internal/domain/shared/valueobject"
	"github.com/finadmin/backend/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupPaymentTestRouter(idemStore shared.IdempotencyStore, idemConfig shared.IdempotencyConfig) (*gin.Engine, *MockPaymentRepository, *MockInvoiceRepository, *MockBillRepository) {
	gin.SetMode(gin.TestMode)

	paymentRepo := new(MockPaymentRepository)
	invoiceRepo := new(MockInvoiceRepository)
	billRepo := new(MockBillRepository)
	service := financeapp.NewPaymentService(paymentRepo, invoiceRepo, billRepo, idemStore, idemConfig, zap.NewNop())
	handler := NewPaymentHandler(service)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))

	return router, paymentRepo, invoiceRepo, billRepo
}

func createTestPayment(target finance.PaymentTarget) *finance.Payment {
	payment, _ := finance.NewPayment(
		valueobject.NewMoney(decimal.NewFromInt(250)),
		time.Now(),
		finance.PaymentModeBankTransfer,
		"TXN-123",
		"",
		target,
	)
	return payment
}

func TestPaymentHandler_Record(t *testing.T) {
	t.Run("should record unlinked payment", func(t *testing.T) {
		router, paymentRepo, _, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*finance.Payment")).Return(nil)

		reqBody := map[string]interface{}{
			"amount": "250",
			"mode":   "CASH",
		}
		body, _ := json.Marshal(reqBody)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "NONE", data["target_kind"])
		assert.Nil(t, data["target_id"])

		paymentRepo.AssertExpectations(t)
	})

	t.Run("should record invoice payment and derive invoice status", func(t *testing.T) {
		router, paymentRepo, invoiceRepo, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		invoice := createTestInvoice("INV-2026-00010")
		payment := createTestPayment(finance.InvoiceTarget(invoice.ID))

		paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*finance.Payment")).Return(nil)
		invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		paymentRepo.On("FindByInvoiceID", mock.Anything, invoice.ID).Return([]finance.Payment{*payment}, nil)
		paymentRepo.On("SumByInvoiceID", mock.Anything, invoice.ID).Return(decimal.NewFromInt(250), nil)
		invoiceRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*finance.Invoice")).Return(nil)

		reqBody := map[string]interface{}{
			"amount":     "250",
			"mode":       "BANK_TRANSFER",
			"invoice_id": invoice.ID.String(),
		}
		body, _ := json.Marshal(reqBody)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "INVOICE", data["target_kind"])
		assert.Equal(t, invoice.ID.String(), data["target_id"])

		invoiceRepo.AssertExpectations(t)
		paymentRepo.AssertExpectations(t)
	})

	t.Run("should reject payment targeting both invoice and bill", func(t *testing.T) {
		router, _, _, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		reqBody := map[string]interface{}{
			"amount":     "250",
			"mode":       "CASH",
			"invoice_id": uuid.New().String(),
			"bill_id":    uuid.New().String(),
		}
		body, _ := json.Marshal(reqBody)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		errInfo := response["error"].(map[string]interface{})
		assert.Equal(t, "ERR_INVALID_TARGET", errInfo["code"])
	})

	t.Run("should reject invalid payment mode", func(t *testing.T) {
		router, _, _, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		reqBody := map[string]interface{}{
			"amount": "250",
			"mode":   "BARTER",
		}
		body, _ := json.Marshal(reqBody)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject replayed idempotency key", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		router, paymentRepo, _, _ := setupPaymentTestRouter(store, shared.IdempotencyConfig{
			Enabled: true,
			TTL:     time.Hour,
		})

		paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*finance.Payment")).Return(nil).Once()

		reqBody := map[string]interface{}{
			"amount": "250",
			"mode":   "CASH",
		}
		body, _ := json.Marshal(reqBody)

		first := httptest.NewRecorder()
		req1, _ := http.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBuffer(body))
		req1.Header.Set("Content-Type", "application/json")
		req1.Header.Set("Idempotency-Key", "pay-once")
		router.ServeHTTP(first, req1)
		assert.Equal(t, http.StatusCreated, first.Code)

		second := httptest.NewRecorder()
		req2, _ := http.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBuffer(body))
		req2.Header.Set("Content-Type", "application/json")
		req2.Header.Set("Idempotency-Key", "pay-once")
		router.ServeHTTP(second, req2)

		assert.Equal(t, http.StatusConflict, second.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(second.Body.Bytes(), &response))
		errInfo := response["error"].(map[string]interface{})
		assert.Equal(t, "ERR_DUPLICATE_REQUEST", errInfo["code"])

		paymentRepo.AssertExpectations(t)
	})
}

func TestPaymentHandler_Get(t *testing.T) {
	t.Run("should return payment by ID", func(t *testing.T) {
		router, paymentRepo, _, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		payment := createTestPayment(finance.NoTarget())
		paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments/"+payment.ID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "250", data["amount"])
		assert.Equal(t, "BANK_TRANSFER", data["mode"])
	})

	t.Run("should return 404 for unknown payment", func(t *testing.T) {
		router, paymentRepo, _, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		id := uuid.New()
		paymentRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments/"+id.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPaymentHandler_List(t *testing.T) {
	t.Run("should filter by invoice", func(t *testing.T) {
		router, paymentRepo, _, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		invoiceID := uuid.New()
		payments := []finance.Payment{*createTestPayment(finance.InvoiceTarget(invoiceID))}
		paymentRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f finance.PaymentFilter) bool {
			return f.InvoiceID != nil && *f.InvoiceID == invoiceID
		})).Return(payments, nil)
		paymentRepo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments?invoice_id="+invoiceID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		paymentRepo.AssertExpectations(t)
	})

	t.Run("should reject invalid mode filter", func(t *testing.T) {
		router, _, _, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments?mode=BARTER", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPaymentHandler_Delete(t *testing.T) {
	t.Run("should delete payment and re-derive invoice", func(t *testing.T) {
		router, paymentRepo, invoiceRepo, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		invoice := createTestInvoice("INV-2026-00011")
		payment := createTestPayment(finance.InvoiceTarget(invoice.ID))

		paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
		paymentRepo.On("Delete", mock.Anything, payment.ID).Return(nil)
		invoiceRepo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		paymentRepo.On("FindByInvoiceID", mock.Anything, invoice.ID).Return([]finance.Payment{}, nil)
		paymentRepo.On("SumByInvoiceID", mock.Anything, invoice.ID).Return(decimal.Zero, nil)
		invoiceRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*finance.Invoice")).Return(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodDelete, "/api/v1/payments/"+payment.ID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		paymentRepo.AssertExpectations(t)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("should keep payment when invoice reference dangles", func(t *testing.T) {
		router, paymentRepo, invoiceRepo, _ := setupPaymentTestRouter(nil, shared.IdempotencyConfig{})

		missingInvoiceID := uuid.New()
		paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*finance.Payment")).Return(nil)
		invoiceRepo.On("FindByID", mock.Anything, missingInvoiceID).Return(nil, shared.ErrNotFound)

		reqBody := map[string]interface{}{
			"amount":     "250",
			"mode":       "UPI",
			"invoice_id": missingInvoiceID.String(),
		}
		body, _ := json.Marshal(reqBody)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		// The payment stands even though the invoice is gone
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
