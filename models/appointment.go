package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"customerId"`
	StoreID         uuid.UUID  `gorm:"type:uuid;index;not null" json:"storeId"`
	ServiceType     string     `gorm:"not null" json:"serviceType"`
	ScheduledAt     time.Time  `gorm:"index;not null" json:"scheduledAt"`
	DurationMinutes int        `gorm:"default:30" json:"durationMinutes"`
	Status          string     `gorm:"type:varchar(20);index;not null;default:'scheduled'" json:"status"`
	Notes           string     `json:"notes"`
	ConfirmedAt     *time.Time `json:"confirmedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
	ReminderSentAt  *time.Time `json:"-"`

	Store    Store     `gorm:"foreignKey:StoreID" json:"store"`
	Customer *Customer `gorm:"foreignKey:CustomerID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
