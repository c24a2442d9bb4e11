package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WorkOrderSubmitted  = "submitted"
	WorkOrderInProgress = "in_progress"
	WorkOrderCompleted  = "completed"
	WorkOrderCancelled  = "cancelled"
)

type WorkOrder struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Number        string     `gorm:"uniqueIndex;not null" json:"number"`
	CustomerID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"customerId"`
	StoreID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"storeId"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index" json:"appointmentId,omitempty"`
	ServiceType   string     `gorm:"not null" json:"serviceType"`
	Description   string     `gorm:"type:text" json:"description"`
	Priority      string     `gorm:"type:varchar(10);default:'normal'" json:"priority"`
	Status        string     `gorm:"type:varchar(20);index;not null;default:'submitted'" json:"status"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`

	Store  Store            `gorm:"foreignKey:StoreID" json:"store"`
	Events []WorkOrderEvent `gorm:"foreignKey:WorkOrderID" json:"events,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkOrderEvent records one status change.
type WorkOrderEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	WorkOrderID uuid.UUID `gorm:"type:uuid;index;not null" json:"workOrderId"`
	FromStatus  string    `gorm:"type:varchar(20)" json:"fromStatus"`
	ToStatus    string    `gorm:"type:varchar(20);not null" json:"toStatus"`
	Note        string    `json:"note"`
	ActorID     uuid.UUID `gorm:"type:uuid" json:"actorId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (w *WorkOrder) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

func (e *WorkOrderEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
