package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	VoucherActive   = "active"
	VoucherReserved = "reserved"
	VoucherRedeemed = "redeemed"
	VoucherExpired  = "expired"
)

// Reward is a catalog entry customers can buy with points.
type Reward struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Description  string          `json:"description"`
	PointsCost   int             `gorm:"not null" json:"pointsCost"`
	VoucherValue decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"voucherValue"`
	Stock        *int            `json:"stock,omitempty"` // nil means unlimited
	ImageURL     string          `json:"imageUrl"`
	IsActive     bool            `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Voucher is redeemable credit owned by a customer.
type Voucher struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Code           string          `gorm:"uniqueIndex;not null" json:"code"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"customerId"`
	RewardID       *uuid.UUID      `gorm:"type:uuid" json:"rewardId,omitempty"`
	Value          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"value"`
	RedeemedAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"redeemed"`
	ReservedAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"reserved"`
	Status         string          `gorm:"type:varchar(20);index;default:'active'" json:"status"`
	ExpiresAt      *time.Time      `gorm:"index" json:"expiresAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Remaining is value minus redeemed and reserved amounts, floored at zero.
func (v Voucher) Remaining() decimal.Decimal {
	rem := v.Value.Sub(v.RedeemedAmount).Sub(v.ReservedAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// StatusAt derives the voucher status from its amounts and expiry.
func (v Voucher) StatusAt(now time.Time) string {
	switch {
	case v.Value.IsPositive() && v.RedeemedAmount.GreaterThanOrEqual(v.Value):
		return VoucherRedeemed
	case v.ExpiresAt != nil && !now.Before(*v.ExpiresAt):
		return VoucherExpired
	case v.Status == VoucherExpired:
		return VoucherExpired
	case v.ReservedAmount.IsPositive() && v.Remaining().IsZero():
		return VoucherReserved
	default:
		return VoucherActive
	}
}

// PointsLedger is an append-only record of every points movement.
type PointsLedger struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"customerId"`
	Points        int        `gorm:"not null" json:"points"`
	BalanceAfter  int        `gorm:"not null" json:"balanceAfter"`
	Reason        string     `gorm:"type:varchar(40);not null" json:"reason"`
	ReferenceType string     `gorm:"type:varchar(40)" json:"referenceType,omitempty"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid" json:"referenceId,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"createdAt"`
}

func (PointsLedger) TableName() string { return "points_ledger" }

func (r *Reward) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

func (v *Voucher) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return
}

func (l *PointsLedger) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
