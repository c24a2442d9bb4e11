package services

import (
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loyalty-backend/models"
)

var DefaultSettings = []models.SystemSetting{
	{Key: SettingWelcomeBonus, Value: "100", Description: "Points credited on registration", IsPublic: true},
	{Key: SettingAppointmentPoints, Value: "50", Description: "Points credited when a service appointment is completed", IsPublic: true},
	{Key: SettingAppName, Value: "Rewards Club", Description: "Installed app name", IsPublic: true},
	{Key: SettingAppShortName, Value: "Rewards", Description: "Home screen label", IsPublic: true},
	{Key: SettingAppThemeColor, Value: "#0f766e", Description: "Browser theme color", IsPublic: true},
	{Key: SettingAppBackground, Value: "#ffffff", Description: "Splash screen background", IsPublic: true},
	{Key: "support.email", Value: "support@example.com", Description: "Customer support address", IsPublic: true},
	{Key: "chat.enabled", Value: "true", Description: "Show the assistant widget", IsPublic: true},
}

var DefaultTemplates = []models.MessageTemplate{
	{
		Type:     models.TemplateAppointmentReminder,
		Message:  "Hi [CustomerName], a reminder that your [Service] appointment at [StoreName] is on [Time]. Reply STOP to opt out.",
		IsActive: true,
	},
	{
		Type:     models.TemplateAppointmentConfirmed,
		Message:  "Hi [CustomerName], your [Service] appointment at [StoreName] on [Time] is confirmed.",
		IsActive: true,
	},
	{
		Type:     models.TemplateWorkOrderCompleted,
		Message:  "Hi [CustomerName], work order [Number] at [StoreName] is complete and ready for pickup.",
		IsActive: true,
	},
}

func defaultRewards() []models.Reward {
	washStock := 50
	return []models.Reward{
		{Name: "$5 voucher", Description: "Five dollars off any purchase", PointsCost: 500, VoucherValue: decimal.NewFromInt(5), IsActive: true},
		{Name: "$10 voucher", Description: "Ten dollars off any purchase", PointsCost: 900, VoucherValue: decimal.NewFromInt(10), IsActive: true},
		{Name: "$25 voucher", Description: "Twenty-five dollars off any purchase", PointsCost: 2000, VoucherValue: decimal.NewFromInt(25), IsActive: true},
		{Name: "Free car wash", Description: "One premium wash at any store", PointsCost: 1500, VoucherValue: decimal.NewFromInt(20), Stock: &washStock, IsActive: true},
	}
}

// Seed inserts default settings, message templates and rewards without touching existing rows.
func Seed(db *gorm.DB) error {
	settings := make([]models.SystemSetting, len(DefaultSettings))
	copy(settings, DefaultSettings)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
		return err
	}

	templates := make([]models.MessageTemplate, len(DefaultTemplates))
	copy(templates, DefaultTemplates)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&templates).Error; err != nil {
		return err
	}

	var rewards int64
	if err := db.Model(&models.Reward{}).Count(&rewards).Error; err != nil {
		return err
	}
	if rewards == 0 {
		seeded := defaultRewards()
		if err := db.Create(&seeded).Error; err != nil {
			return err
		}
		log.WithField("count", len(seeded)).Info("seeded rewards")
	}
	return nil
}
