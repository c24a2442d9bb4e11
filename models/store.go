package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Store struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Code         string       `gorm:"uniqueIndex;not null" json:"code"`
	Name         string       `gorm:"not null" json:"name"`
	Address      string       `json:"address"`
	City         string       `gorm:"index" json:"city"`
	PostalCode   string       `json:"postalCode"`
	Phone        string       `json:"phone"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	Timezone     string       `gorm:"default:'UTC'" json:"timezone"`
	Services     StringList   `gorm:"type:jsonb;default:'[]'" json:"services"`
	Amenities    StringList   `gorm:"type:jsonb;default:'[]'" json:"amenities"`
	Rating       float64      `gorm:"default:0" json:"rating"`
	Bays         int          `gorm:"default:2" json:"bays"`
	OpeningHours OpeningHours `gorm:"type:jsonb;default:'{}'" json:"openingHours"`
	IsActive     bool         `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// Location resolves the store timezone, defaulting to UTC.
func (s Store) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
