package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-backend/models"
)

func TestCreateTransaction(t *testing.T) {
	staff := caller{id: uuid.New(), role: models.RoleStaff}
	purchase := map[string]interface{}{
		"customerId":    uuid.New(),
		"storeId":       uuid.New(),
		"paymentMethod": "card",
		"items":         []map[string]interface{}{{"productId": uuid.New(), "quantity": 2}},
	}

	t.Run("unknown store", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "stores"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		tc := &TransactionController{}

		w := serve(t, staff, http.MethodPost, "/transactions", "/transactions", purchase, tc.CreateTransaction)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Store not found", errorMessage(t, w))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty basket", func(t *testing.T) {
		tc := &TransactionController{}
		body := map[string]interface{}{
			"customerId":    uuid.New(),
			"storeId":       uuid.New(),
			"paymentMethod": "card",
			"items":         []interface{}{},
		}

		w := serve(t, staff, http.MethodPost, "/transactions", "/transactions", body, tc.CreateTransaction)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported payment method", func(t *testing.T) {
		tc := &TransactionController{}
		body := map[string]interface{}{}
		for k, v := range purchase {
			body[k] = v
		}
		body["paymentMethod"] = "cheque"

		w := serve(t, staff, http.MethodPost, "/transactions", "/transactions", body, tc.CreateTransaction)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetTransactions_BadDate(t *testing.T) {
	tc := &TransactionController{}
	w := serve(t, customerCaller(), http.MethodGet, "/transactions", "/transactions?from=03/06/2030", nil, tc.GetTransactions)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "from must be YYYY-MM-DD", errorMessage(t, w))
}

func TestFillMonths(t *testing.T) {
	start := time.Date(2029, time.July, 1, 0, 0, 0, 0, time.UTC)
	rows := []MonthlySpend{
		{Month: "2029-08", Total: decimal.NewFromInt(120), Count: 2},
		{Month: "2030-06", Total: decimal.NewFromFloat(49.5), Count: 1},
	}

	got := fillMonths(start, rows)

	require.Len(t, got, 12)
	assert.Equal(t, "2029-07", got[0].Month)
	assert.True(t, got[0].Total.IsZero())
	assert.Equal(t, int64(2), got[1].Count)
	assert.Equal(t, "2030-06", got[11].Month)
	assert.True(t, got[11].Total.Equal(decimal.NewFromFloat(49.5)))
}
