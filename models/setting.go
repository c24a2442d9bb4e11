package models

import "time"

// SystemSetting is a key-value configuration row editable by admins.
type SystemSetting struct {
	Key         string    `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Description string    `json:"description"`
	IsPublic    bool      `gorm:"default:false" json:"isPublic"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
