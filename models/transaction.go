package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a completed in-store or online purchase.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Number        string          `gorm:"uniqueIndex;not null" json:"number"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"customerId"`
	StoreID       uuid.UUID       `gorm:"type:uuid;index;not null" json:"storeId"`
	CreatedByID   uuid.UUID       `gorm:"type:uuid" json:"-"`
	PurchasedAt   time.Time       `gorm:"index;default:CURRENT_TIMESTAMP" json:"purchasedAt"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"discount"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	PointsEarned  int             `gorm:"default:0" json:"pointsEarned"`
	PaymentMethod string          `json:"paymentMethod"`
	VoucherID     *uuid.UUID      `gorm:"type:uuid" json:"voucherId,omitempty"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID" json:"items"`
	Store Store             `gorm:"foreignKey:StoreID" json:"store"`

	CreatedAt time.Time `json:"createdAt"`
}

type TransactionItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TransactionID uuid.UUID       `gorm:"type:uuid;index;not null" json:"transactionId"`
	ProductID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"productId"`
	ProductName   string          `gorm:"not null" json:"productName"`
	Quantity      int             `gorm:"default:1" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

func (i *TransactionItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
