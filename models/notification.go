package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TemplateAppointmentReminder  = "appointment_reminder"
	TemplateAppointmentConfirmed = "appointment_confirmed"
	TemplateWorkOrderCompleted   = "work_order_completed"
)

// MessageTemplate is the SMS body used for one notification type.
type MessageTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Type      string    `gorm:"type:varchar(40);uniqueIndex;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NotificationLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"customerId"`
	TemplateID   *uuid.UUID `gorm:"type:uuid;index" json:"templateId,omitempty"`
	ReferenceID  *uuid.UUID `gorm:"type:uuid;index" json:"referenceId,omitempty"`
	Type         string     `gorm:"type:varchar(40)" json:"type"`
	Message      string     `gorm:"type:text" json:"message"`
	Status       string     `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string     `gorm:"type:text" json:"errorMessage,omitempty"`
	Channel      string     `gorm:"type:varchar(20)" json:"channel"` // sms, log
	SentAt       time.Time  `json:"sentAt"`
}

func (t *MessageTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	n.ID = uuid.New()
	return
}
