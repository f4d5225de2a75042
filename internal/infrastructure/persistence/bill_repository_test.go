package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/finadmin/backend/internal/domain/finance"
	"github.com/finadmin/backend/internal/domain/shared"
	"github.com/finadmin/backend/internal/domain/shared/valueobject"
	"github.com/finadmin/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newMockBillRepository creates a GormBillRepository with a mocked SQL connection
func newMockBillRepository(t *testing.T) (*GormBillRepository, sqlmock.Sqlmock, *sql.DB) {
	m := testutil.NewMockDB(t)
	return NewGormBillRepository(m.DB), m.Mock, m.SqlDB
}

func billRows(id uuid.UUID, number string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version",
		"bill_number", "vendor_name", "amount", "status",
		"bill_date", "due_date", "category", "notes",
	}).AddRow(
		id, now, now, 1,
		number, "Office Supplies Ltd", decimal.NewFromInt(480), finance.BillStatusSubmitted,
		now, nil, "office", "",
	)
}

func TestGormBillRepository_FindByID(t *testing.T) {
	t.Run("finds existing bill", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(billID, 1).
			WillReturnRows(billRows(billID, "BILL-00007"))

		bill, err := repo.FindByID(context.Background(), billID)

		assert.NoError(t, err)
		require.NotNil(t, bill)
		assert.Equal(t, "BILL-00007", bill.BillNumber)
		assert.Equal(t, "Office Supplies Ltd", bill.VendorName)
		assert.Equal(t, finance.BillStatusSubmitted, bill.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown bill", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(billID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		bill, err := repo.FindByID(context.Background(), billID)

		assert.Nil(t, bill)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBillRepository_FindAll(t *testing.T) {
	t.Run("applies search term to number and vendor name", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		billID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "bills" WHERE bill_number ILIKE \$1 OR vendor_name ILIKE \$2 ORDER BY created_at`).
			WithArgs("%supplies%", "%supplies%").
			WillReturnRows(billRows(billID, "BILL-00003"))

		filter := finance.BillFilter{}
		filter.Search = "supplies"

		bills, err := repo.FindAll(context.Background(), filter)

		assert.NoError(t, err)
		require.Len(t, bills, 1)
		assert.Equal(t, "Office Supplies Ltd", bills[0].VendorName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBillRepository_SaveWithLock(t *testing.T) {
	t.Run("returns concurrency conflict when version moved on", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		bill, err := finance.NewBill("BILL-00007", "Office Supplies Ltd",
			valueobject.NewMoney(decimal.NewFromInt(480)), finance.BillStatusSubmitted,
			time.Now(), nil, "office", "")
		require.NoError(t, err)
		bill.Version = 2

		mock.ExpectExec(`UPDATE "bills" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(context.Background(), bill)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBillRepository_GenerateBillNumber(t *testing.T) {
	t.Run("formats the next sequence value", func(t *testing.T) {
		repo, mock, mockDB := newMockBillRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO number_sequences`).
			WithArgs(sequenceBill).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))

		number, err := repo.GenerateBillNumber(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, "BILL-00007", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
