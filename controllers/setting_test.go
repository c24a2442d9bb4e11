package controllers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
)

var settingColumns = []string{"key", "value", "description", "is_public"}

func TestSettingController_GetSetting(t *testing.T) {
	t.Run("private setting hidden from customers", func(t *testing.T) {
		mock := setupMockDB(t)
		sc := &SettingController{Settings: services.NewSettingsService(config.DB, nil)}
		mock.ExpectQuery(`SELECT \* FROM "system_settings"`).
			WillReturnRows(sqlmock.NewRows(settingColumns).AddRow("loyalty.welcome_bonus", "100", "", false))

		w := serve(t, customerCaller(), http.MethodGet, "/settings/:key", "/settings/loyalty.welcome_bonus", nil, sc.GetSetting)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("private setting visible to admins", func(t *testing.T) {
		mock := setupMockDB(t)
		sc := &SettingController{Settings: services.NewSettingsService(config.DB, nil)}
		mock.ExpectQuery(`SELECT \* FROM "system_settings"`).
			WillReturnRows(sqlmock.NewRows(settingColumns).AddRow("loyalty.welcome_bonus", "100", "", false))

		w := serve(t, adminCaller(), http.MethodGet, "/settings/:key", "/settings/loyalty.welcome_bonus", nil, sc.GetSetting)

		require.Equal(t, http.StatusOK, w.Code)
		var got models.SystemSetting
		decode(t, w, &got)
		assert.Equal(t, "100", got.Value)
	})

	t.Run("missing", func(t *testing.T) {
		mock := setupMockDB(t)
		sc := &SettingController{Settings: services.NewSettingsService(config.DB, nil)}
		mock.ExpectQuery(`SELECT \* FROM "system_settings"`).WillReturnRows(sqlmock.NewRows(settingColumns))

		w := serve(t, adminCaller(), http.MethodGet, "/settings/:key", "/settings/nope", nil, sc.GetSetting)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Setting not found", errorMessage(t, w))
	})
}

func TestSettingController_UpdateSetting_KeepsExistingFlags(t *testing.T) {
	mock := setupMockDB(t)
	sc := &SettingController{Settings: services.NewSettingsService(config.DB, services.NewMemoryCache())}

	mock.ExpectQuery(`SELECT \* FROM "system_settings"`).
		WillReturnRows(sqlmock.NewRows(settingColumns).AddRow("app.name", "Loyalty Club", "Display name", true))
	mock.ExpectExec(`INSERT INTO "system_settings" .* ON CONFLICT \("key"\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := serve(t, adminCaller(), http.MethodPut, "/settings/:key", "/settings/app.name",
		map[string]string{"value": "Garage Rewards"}, sc.UpdateSetting)

	require.Equal(t, http.StatusOK, w.Code)
	var got models.SystemSetting
	decode(t, w, &got)
	assert.Equal(t, "Garage Rewards", got.Value)
	assert.Equal(t, "Display name", got.Description)
	assert.True(t, got.IsPublic)
	assert.NoError(t, mock.ExpectationsWereMet())
}
