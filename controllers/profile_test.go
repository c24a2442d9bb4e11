package controllers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestChangePassword(t *testing.T) {
	t.Run("wrong current password", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "customers"`).WillReturnRows(customerRow(t, "correct-horse", true))

		w := serve(t, customerCaller(), http.MethodPut, "/profile/password", "/profile/password",
			map[string]string{"currentPassword": "nope-nope", "newPassword": "battery-staple"}, ChangePassword)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Current password is incorrect", errorMessage(t, w))
	})

	t.Run("new password must differ", func(t *testing.T) {
		w := serve(t, customerCaller(), http.MethodPut, "/profile/password", "/profile/password",
			map[string]string{"currentPassword": "correct-horse", "newPassword": "correct-horse"}, ChangePassword)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("updated", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "customers"`).WillReturnRows(customerRow(t, "correct-horse", true))
		mock.ExpectExec(`UPDATE "customers" SET "password"`).WillReturnResult(sqlmock.NewResult(0, 1))

		w := serve(t, customerCaller(), http.MethodPut, "/profile/password", "/profile/password",
			map[string]string{"currentPassword": "correct-horse", "newPassword": "battery-staple"}, ChangePassword)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateProfile_FutureBirthday(t *testing.T) {
	mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "customers"`).WillReturnRows(customerRow(t, "correct-horse", true))

	w := serve(t, customerCaller(), http.MethodPut, "/profile", "/profile",
		map[string]string{"birthday": "2999-01-01"}, UpdateProfile)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "birthday must be a past date as YYYY-MM-DD", errorMessage(t, w))
}
