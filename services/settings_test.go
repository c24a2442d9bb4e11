package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-backend/models"
)

func TestSettingsPublicIsCached(t *testing.T) {
	db, sqlMock := newMockDB(t)
	svc := NewSettingsService(db, NewMemoryCache())

	sqlMock.ExpectQuery(`SELECT \* FROM "system_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "is_public"}).
			AddRow("app.name", "Rewards Club", true).
			AddRow("loyalty.welcome_bonus", "100", true))

	first, err := svc.Public(context.Background())
	require.NoError(t, err)
	second, err := svc.Public(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"app.name": "Rewards Club", "loyalty.welcome_bonus": "100"}, first)
	assert.Equal(t, first, second)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestSettingsInt(t *testing.T) {
	db, sqlMock := newMockDB(t)
	svc := NewSettingsService(db, nil)

	sqlMock.ExpectQuery(`SELECT \* FROM "system_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow(SettingWelcomeBonus, "250"))
	sqlMock.ExpectQuery(`SELECT \* FROM "system_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow(SettingAppointmentPoints, "lots"))
	sqlMock.ExpectQuery(`SELECT \* FROM "system_settings"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))

	assert.Equal(t, 250, svc.Int(context.Background(), SettingWelcomeBonus, 100))
	assert.Equal(t, 50, svc.Int(context.Background(), SettingAppointmentPoints, 50))
	assert.Equal(t, 7, svc.Int(context.Background(), "missing", 7))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestSettingsUpsertInvalidatesCache(t *testing.T) {
	db, sqlMock := newMockDB(t)
	cache := NewMemoryCache()
	cache.Set(context.Background(), settingsCacheKey, []byte(`{"app.name":"Old"}`), 0)
	svc := NewSettingsService(db, cache)

	sqlMock.ExpectExec(`INSERT INTO "system_settings" .* ON CONFLICT \("key"\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Upsert(context.Background(), &models.SystemSetting{Key: SettingAppName, Value: "New", IsPublic: true})
	require.NoError(t, err)

	_, ok := cache.Get(context.Background(), settingsCacheKey)
	assert.False(t, ok)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestSeed(t *testing.T) {
	db, sqlMock := newMockDB(t)

	sqlMock.ExpectExec(`INSERT INTO "system_settings" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, int64(len(DefaultSettings))))
	sqlMock.ExpectQuery(`INSERT INTO "message_templates" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()).AddRow(uuid.New()).AddRow(uuid.New()))
	sqlMock.ExpectQuery(`SELECT count\(\*\) FROM "rewards"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	sqlMock.ExpectQuery(`INSERT INTO "rewards"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(uuid.New()).AddRow(uuid.New()).AddRow(uuid.New()).AddRow(uuid.New()))

	require.NoError(t, Seed(db))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
