package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

type Customer struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Name     string    `gorm:"not null" json:"name"`
	Phone    string    `gorm:"uniqueIndex" json:"phone"`
	Role     string    `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`

	Address          string     `json:"address"`
	Birthday         *time.Time `json:"birthday,omitempty"`
	MarketingOptIn   bool       `gorm:"default:false" json:"marketingOptIn"`
	PreferredStoreID *uuid.UUID `gorm:"type:uuid" json:"preferredStoreId,omitempty"`

	Tier           string          `gorm:"type:varchar(20);not null;default:'Bronze'" json:"tier"`
	PointsBalance  int             `gorm:"not null;default:0" json:"pointsBalance"`
	LifetimePoints int             `gorm:"not null;default:0" json:"lifetimePoints"`
	TotalSpent     decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"totalSpent"`
	TotalVisits    int             `gorm:"default:0" json:"totalVisits"`
	LastVisit      *time.Time      `json:"lastVisit,omitempty"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	IsActive  bool       `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
