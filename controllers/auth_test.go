package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-backend/models"
	"loyalty-backend/utils"
)

func customerRow(t *testing.T, password string, active bool) *sqlmock.Rows {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"id", "email", "phone", "name", "password", "role", "tier", "is_active"}).
		AddRow(uuid.New(), "ana@example.com", "+4915112345678", "Ana", hashed, models.RoleCustomer, "Bronze", active)
}

func TestRegister_Duplicate(t *testing.T) {
	mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT \* FROM "customers" WHERE \(email = \$1 OR phone = \$2\)`).
		WithArgs("ana@example.com", "+4915112345678", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	ac := &AuthController{Secret: "test-secret", TokenTTL: time.Hour}

	w := serve(t, anonymous, http.MethodPost, "/auth/register", "/auth/register", map[string]string{
		"email":    "  Ana@Example.com ",
		"phone":    "+4915112345678",
		"name":     "Ana",
		"password": "hunter2hunter2",
	}, ac.Register)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email or phone already registered", errorMessage(t, w))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_InvalidPhone(t *testing.T) {
	ac := &AuthController{Secret: "test-secret", TokenTTL: time.Hour}

	w := serve(t, anonymous, http.MethodPost, "/auth/register", "/auth/register", map[string]string{
		"email":    "ana@example.com",
		"phone":    "call me",
		"name":     "Ana",
		"password": "hunter2hunter2",
	}, ac.Register)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	ac := &AuthController{Secret: "test-secret", TokenTTL: time.Hour}
	login := func(t *testing.T, password string) *httptest.ResponseRecorder {
		return serve(t, anonymous, http.MethodPost, "/auth/login", "/auth/login",
			map[string]string{"identifier": "ana@example.com", "password": password}, ac.Login)
	}

	t.Run("unknown account", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "customers"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		w := login(t, "whatever1")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid credentials", errorMessage(t, w))
	})

	t.Run("wrong password", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "customers"`).WillReturnRows(customerRow(t, "correct-horse", true))

		w := login(t, "battery-staple")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid credentials", errorMessage(t, w))
	})

	t.Run("disabled account", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "customers"`).WillReturnRows(customerRow(t, "correct-horse", false))

		w := login(t, "correct-horse")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Account is disabled", errorMessage(t, w))
	})

	t.Run("success", func(t *testing.T) {
		mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "customers"`).WillReturnRows(customerRow(t, "correct-horse", true))
		mock.ExpectExec(`UPDATE "customers" SET "last_login"`).WillReturnResult(sqlmock.NewResult(0, 1))

		w := login(t, "correct-horse")
		require.Equal(t, http.StatusOK, w.Code)

		var got struct {
			Token    string          `json:"token"`
			Customer models.Customer `json:"customer"`
		}
		decode(t, w, &got)
		claims, err := utils.ParseToken("test-secret", got.Token)
		require.NoError(t, err)
		assert.Equal(t, got.Customer.ID.String(), claims.Subject)
		assert.NotEmpty(t, w.Result().Cookies())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegister_RejectsMalformedEmailAfterTrimming(t *testing.T) {
	ac := &AuthController{Secret: "test-secret", TokenTTL: time.Hour}

	w := serve(t, anonymous, http.MethodPost, "/auth/register", "/auth/register", map[string]string{
		"email":    "  not-an-email ",
		"phone":    "+4915112345678",
		"name":     "Ana",
		"password": "hunter2hunter2",
	}, ac.Register)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "Email")
}
