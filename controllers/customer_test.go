package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-backend/config"
	"loyalty-backend/services"
)

func TestCustomerController_UpdateCustomer(t *testing.T) {
	t.Run("admin cannot demote themselves", func(t *testing.T) {
		mock := setupMockDB(t)
		admin := adminCaller()
		mock.ExpectQuery(`SELECT \* FROM "customers"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "role", "is_active"}).AddRow(admin.id, "admin", true))

		cc := &CustomerController{}
		w := serve(t, admin, http.MethodPut, "/customers/:id", "/customers/"+admin.id.String(),
			map[string]string{"role": "customer"}, cc.UpdateCustomer)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("promote to staff", func(t *testing.T) {
		mock := setupMockDB(t)
		target := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "customers"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "role", "is_active"}).AddRow(target, "customer", true))
		mock.ExpectExec(`UPDATE "customers" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

		cc := &CustomerController{}
		w := serve(t, adminCaller(), http.MethodPut, "/customers/:id", "/customers/"+target.String(),
			map[string]string{"role": "staff"}, cc.UpdateCustomer)

		require.Equal(t, http.StatusOK, w.Code)
		var got map[string]interface{}
		decode(t, w, &got)
		assert.Equal(t, "staff", got["role"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid role", func(t *testing.T) {
		cc := &CustomerController{}
		w := serve(t, adminCaller(), http.MethodPut, "/customers/:id", "/customers/"+uuid.NewString(),
			map[string]string{"role": "owner"}, cc.UpdateCustomer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCustomerController_GrantPoints(t *testing.T) {
	mock := setupMockDB(t)
	target := uuid.New()
	cc := &CustomerController{Loyalty: services.NewLoyaltyService(config.DB, nil, time.Hour)}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "customers" SET "lifetime_points"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "customers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "points_balance", "lifetime_points", "tier"}).
			AddRow(target, 300, 300, "Bronze"))
	mock.ExpectQuery(`INSERT INTO "points_ledger"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	w := serve(t, adminCaller(), http.MethodPost, "/customers/:id/points", "/customers/"+target.String()+"/points",
		map[string]interface{}{"points": 250, "note": "late delivery"}, cc.GrantPoints)

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	decode(t, w, &got)
	assert.Equal(t, float64(250), got["pointsAwarded"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerController_DeleteSelf(t *testing.T) {
	admin := adminCaller()
	cc := &CustomerController{}
	w := serve(t, admin, http.MethodDelete, "/customers/:id", "/customers/"+admin.id.String(), nil, cc.DeleteCustomer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
