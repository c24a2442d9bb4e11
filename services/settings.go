package services

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loyalty-backend/models"
)

const (
	SettingWelcomeBonus      = "loyalty.welcome_bonus"
	SettingAppointmentPoints = "loyalty.appointment_points"
	SettingAppName           = "app.name"
	SettingAppShortName      = "app.short_name"
	SettingAppThemeColor     = "app.theme_color"
	SettingAppBackground     = "app.background_color"

	settingsCacheKey = "settings:public"
	settingsTTL      = 10 * time.Minute
)

type SettingsService struct {
	db    *gorm.DB
	cache Cache
}

func NewSettingsService(db *gorm.DB, cache Cache) *SettingsService {
	return &SettingsService{db: db, cache: cache}
}

// Public returns every public setting as a key/value map.
func (s *SettingsService) Public(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	err := CacheJSON(ctx, s.cache, settingsCacheKey, settingsTTL, &out, func() (interface{}, error) {
		var rows []models.SystemSetting
		if err := s.db.WithContext(ctx).Where("is_public = ?", true).Order("key").Find(&rows).Error; err != nil {
			return nil, err
		}
		m := make(map[string]string, len(rows))
		for _, r := range rows {
			m[r.Key] = r.Value
		}
		return m, nil
	})
	return out, err
}

func (s *SettingsService) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	var setting models.SystemSetting
	if err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// Int reads an integer setting, falling back to def when missing or malformed.
func (s *SettingsService) Int(ctx context.Context, key string, def int) int {
	setting, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	v, err := strconv.Atoi(setting.Value)
	if err != nil {
		return def
	}
	return v
}

// String reads a setting, falling back to def when missing.
func (s *SettingsService) String(ctx context.Context, key, def string) string {
	setting, err := s.Get(ctx, key)
	if err != nil || setting.Value == "" {
		return def
	}
	return setting.Value
}

func (s *SettingsService) Upsert(ctx context.Context, setting *models.SystemSetting) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "is_public", "updated_at"}),
	}).Create(setting).Error
	if err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.DeletePrefix(ctx, "settings:")
	}
	return nil
}
