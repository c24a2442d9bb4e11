package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SKU         string              `gorm:"uniqueIndex;not null" json:"sku"`
	Name        string              `gorm:"not null;index" json:"name"`
	Description string              `json:"description"`
	Category    string              `gorm:"index;default:'General'" json:"category"`
	Brand       string              `gorm:"index" json:"brand"`
	Price       decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"price"`
	SalePrice   decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"salePrice"`
	ImageURL    string              `json:"imageUrl"`
	Stock       int                 `gorm:"default:0" json:"stock"`
	Rating      float64             `gorm:"default:0" json:"rating"`
	ReviewCount int                 `gorm:"default:0" json:"reviewCount"`
	IsActive    bool                `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// EffectivePrice is the sale price when one is set below the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid && p.SalePrice.Decimal.LessThan(p.Price) {
		return p.SalePrice.Decimal
	}
	return p.Price
}
