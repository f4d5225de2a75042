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
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupBillTestRouter() (*gin.Engine, *MockBillRepository, *MockPaymentRepository) {
	gin.SetMode(gin.TestMode)

	billRepo := new(MockBillRepository)
	paymentRepo := new(MockPaymentRepository)
	service := financeapp.NewBillService(billRepo, paymentRepo, zap.NewNop())
	handler := NewBillHandler(service)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))

	return router, billRepo, paymentRepo
}

func createTestBill(billNumber string, status finance.BillStatus) *finance.Bill {
	bill, _ := finance.NewBill(
		billNumber,
		"Office Supplies Ltd",
		valueobject.NewMoney(decimal.NewFromInt(480)),
		status,
		time.Now(),
		nil,
		"office",
		"",
	)
	return bill
}

func TestBillHandler_List(t *testing.T) {
	t.Run("should list bills with pagination defaults", func(t *testing.T) {
		router, billRepo, _ := setupBillTestRouter()

		bills := []finance.Bill{*createTestBill("BILL-2026-00001", finance.BillStatusSubmitted)}
		billRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f finance.BillFilter) bool {
			return f.Page == 1 && f.PageSize == 20
		})).Return(bills, nil)
		billRepo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/bills", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response["success"].(bool))
		billRepo.AssertExpectations(t)
	})

	t.Run("should pass vendor filter through", func(t *testing.T) {
		router, billRepo, _ := setupBillTestRouter()

		billRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f finance.BillFilter) bool {
			return f.Vendor == "Office"
		})).Return([]finance.Bill{}, nil)
		billRepo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v1/bills?vendor=Office", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		billRepo.AssertExpectations(t)
	})
}

func TestBillHandler_Create(t *testing.T) {
	t.Run("should create bill", func(t *testing.T) {
		router, billRepo, _ := setupBillTestRouter()

		billRepo.On("GenerateBillNumber", mock.Anything).Return("BILL-2026-00002", nil)
		billRepo.On("Save", mock.Anything, mock.AnythingOfType("*finance.Bill")).Return(nil)

		reqBody := map[string]interface{}{
			"vendor_name": "Office Supplies Ltd",
			"amount":      "480",
			"category":    "office",
		}
		body, _ := json.Marshal(reqBody)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/bills", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "BILL-2026-00002", data["bill_number"])
		assert.Equal(t, "DRAFT", data["status"])

		billRepo.AssertExpectations(t)
	})

	t.Run("should reject missing vendor name", func(t *testing.T) {
		router, _, _ := setupBillTestRouter()

		reqBody := map[string]interface{}{"amount": "480"}
		body, _ := json.Marshal(reqBody)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/bills", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBillHandler_MarkPaid(t *testing.T) {
	t.Run("should mark bill as paid", func(t *testing.T) {
		router, billRepo, _ := setupBillTestRouter()

		bill := createTestBill("BILL-2026-00003", finance.BillStatusApproved)
		billRepo.On("FindByID", mock.Anything, bill.ID).Return(bill, nil)
		billRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*finance.Bill")).Return(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/bills/"+bill.ID.String()+"/pay", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "PAID", data["status"])
	})

	t.Run("should return 404 for unknown bill", func(t *testing.T) {
		router, billRepo, _ := setupBillTestRouter()

		id := uuid.New()
		billRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/v1/bills/"+id.String()+"/pay", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBillHandler_Delete(t *testing.T) {
	t.Run("should refuse to delete bill with payments", func(t *testing.T) {
		router, billRepo, paymentRepo := setupBillTestRouter()

		bill := createTestBill("BILL-2026-00004", finance.BillStatusPaid)
		billRepo.On("FindByID", mock.Anything, bill.ID).Return(bill, nil)
		paymentRepo.On("ExistsByBillID", mock.Anything, bill.ID).Return(true, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodDelete, "/api/v1/bills/"+bill.ID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		errInfo := response["error"].(map[string]interface{})
		assert.Equal(t, "ERR_HAS_PAYMENTS", errInfo["code"])
	})

	t.Run("should delete bill without payments", func(t *testing.T) {
		router, billRepo, paymentRepo := setupBillTestRouter()

		bill := createTestBill("BILL-2026-00005", finance.BillStatusDraft)
		billRepo.On("FindByID", mock.Anything, bill.ID).Return(bill, nil)
		paymentRepo.On("ExistsByBillID", mock.Anything, bill.ID).Return(false, nil)
		billRepo.On("Delete", mock.Anything, bill.ID).Return(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodDelete, "/api/v1/bills/"+bill.ID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		billRepo.AssertExpectations(t)
	})
}
