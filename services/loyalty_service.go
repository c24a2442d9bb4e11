package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/utils"
)

var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrRewardUnavailable  = errors.New("reward is out of stock")
	ErrVoucherUnusable    = errors.New("voucher cannot be applied")
	ErrOutOfStock         = errors.New("product is out of stock")
)

const (
	ReasonPurchase         = "purchase"
	ReasonRedemption       = "reward_redemption"
	ReasonWelcomeBonus     = "welcome_bonus"
	ReasonAppointmentVisit = "appointment_completed"
	ReasonGoodwill         = "goodwill"
)

type LoyaltyService struct {
	db              *gorm.DB
	events          Publisher
	voucherValidity time.Duration
	now             func() time.Time
}

func NewLoyaltyService(db *gorm.DB, events Publisher, voucherValidity time.Duration) *LoyaltyService {
	return &LoyaltyService{
		db:              db,
		events:          events,
		voucherValidity: voucherValidity,
		now:             time.Now,
	}
}

// AwardPoints credits points inside tx, re-tiers the customer and writes the ledger row.
func (s *LoyaltyService) AwardPoints(tx *gorm.DB, customerID uuid.UUID, points int, reason, refType string, refID *uuid.UUID) (*models.Customer, error) {
	var customer models.Customer

	if points > 0 {
		res := tx.Model(&models.Customer{}).Where("id = ?", customerID).
			Updates(map[string]interface{}{
				"points_balance":  gorm.Expr("points_balance + ?", points),
				"lifetime_points": gorm.Expr("lifetime_points + ?", points),
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	if err := tx.First(&customer, "id = ?", customerID).Error; err != nil {
		return nil, err
	}
	if points <= 0 {
		return &customer, nil
	}

	if tier := TierFor(customer.LifetimePoints).Name; tier != customer.Tier {
		if err := tx.Model(&customer).Update("tier", tier).Error; err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"customer": customerID, "tier": tier}).Info("customer reached new tier")
	}

	entry := models.PointsLedger{
		CustomerID:    customerID,
		Points:        points,
		BalanceAfter:  customer.PointsBalance,
		Reason:        reason,
		ReferenceType: refType,
		ReferenceID:   refID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	config.PointsEarned.Add(float64(points))
	Emit(s.events, SubjectPointsAwarded, map[string]interface{}{
		"customerId": customerID,
		"points":     points,
		"reason":     reason,
	})
	return &customer, nil
}

// Redeem swaps points for a voucher. Deduction, stock, ledger and voucher commit together.
func (s *LoyaltyService) Redeem(ctx context.Context, customerID, rewardID uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	var reward models.Reward

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_active = ?", rewardID, true).First(&reward).Error; err != nil {
			return err
		}

		if reward.Stock != nil {
			res := tx.Model(&models.Reward{}).Where("id = ? AND stock > 0", reward.ID).
				Update("stock", gorm.Expr("stock - 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrRewardUnavailable
			}
		}

		res := tx.Model(&models.Customer{}).
			Where("id = ? AND points_balance >= ?", customerID, reward.PointsCost).
			Update("points_balance", gorm.Expr("points_balance - ?", reward.PointsCost))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientPoints
		}

		var customer models.Customer
		if err := tx.First(&customer, "id = ?", customerID).Error; err != nil {
			return err
		}

		expiresAt := s.now().Add(s.voucherValidity)
		voucher = models.Voucher{
			Code:       "RWD-" + utils.GenerateRandomString(8),
			CustomerID: customerID,
			RewardID:   &reward.ID,
			Value:      reward.VoucherValue,
			Status:     models.VoucherActive,
			ExpiresAt:  &expiresAt,
		}
		if err := tx.Create(&voucher).Error; err != nil {
			return err
		}

		return tx.Create(&models.PointsLedger{
			CustomerID:    customerID,
			Points:        -reward.PointsCost,
			BalanceAfter:  customer.PointsBalance,
			Reason:        ReasonRedemption,
			ReferenceType: "voucher",
			ReferenceID:   &voucher.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	config.PointsRedeemed.Add(float64(reward.PointsCost))
	Emit(s.events, SubjectRewardRedeemed, map[string]interface{}{
		"customerId": customerID,
		"rewardId":   reward.ID,
		"voucher":    voucher.Code,
		"points":     reward.PointsCost,
	})
	return &voucher, nil
}

// ExpireVouchers marks every unspent voucher past its expiry date.
func (s *LoyaltyService) ExpireVouchers(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Voucher{}).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at <= ?",
			[]string{models.VoucherActive, models.VoucherReserved}, s.now()).
		Update("status", models.VoucherExpired)
	return res.RowsAffected, res.Error
}

type PurchaseItem struct {
	ProductID uuid.UUID
	Quantity  int
}

type PurchaseInput struct {
	CustomerID    uuid.UUID
	StoreID       uuid.UUID
	CreatedByID   uuid.UUID
	Items         []PurchaseItem
	VoucherCode   string
	PaymentMethod string
	PurchasedAt   time.Time
}

// ApplyVoucher reserves up to subtotal from the customer's voucher and returns the discount.
func ApplyVoucher(v *models.Voucher, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if v.StatusAt(now) != models.VoucherActive {
		return decimal.Zero, ErrVoucherUnusable
	}
	discount := decimal.Min(v.Remaining(), subtotal)
	if !discount.IsPositive() {
		return decimal.Zero, ErrVoucherUnusable
	}
	v.ReservedAmount = v.ReservedAmount.Add(discount)
	return discount, nil
}

// CaptureVoucher moves a reserved amount into the redeemed column.
func CaptureVoucher(v *models.Voucher, amount decimal.Decimal, now time.Time) {
	v.ReservedAmount = v.ReservedAmount.Sub(amount)
	if v.ReservedAmount.IsNegative() {
		v.ReservedAmount = decimal.Zero
	}
	v.RedeemedAmount = v.RedeemedAmount.Add(amount)
	v.Status = v.StatusAt(now)
}

// RecordPurchase writes a transaction with its items and settles voucher, stats and points in one go.
func (s *LoyaltyService) RecordPurchase(ctx context.Context, in PurchaseInput) (*models.Transaction, error) {
	now := s.now()
	if in.PurchasedAt.IsZero() {
		in.PurchasedAt = now
	}

	var txn models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, "id = ?", in.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &utils.NotFoundError{Resource: "customer", Key: "id", Value: in.CustomerID.String()}
			}
			return err
		}

		subtotal := decimal.Zero
		items := make([]models.TransactionItem, 0, len(in.Items))
		for _, item := range in.Items {
			var product models.Product
			if err := tx.Where("id = ? AND is_active = ?", item.ProductID, true).First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &utils.NotFoundError{Resource: "product", Key: "id", Value: item.ProductID.String()}
				}
				return err
			}

			res := tx.Model(&models.Product{}).Where("id = ? AND stock >= ?", product.ID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrOutOfStock
			}

			unit := product.EffectivePrice()
			lineTotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(lineTotal)

			items = append(items, models.TransactionItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   unit,
				TotalPrice:  lineTotal,
			})
		}

		discount := decimal.Zero
		var voucher *models.Voucher
		if in.VoucherCode != "" {
			voucher = &models.Voucher{}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("code = ? AND customer_id = ?", in.VoucherCode, in.CustomerID).
				First(voucher).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &utils.NotFoundError{Resource: "voucher", Key: "code", Value: in.VoucherCode}
				}
				return err
			}
			var err error
			if discount, err = ApplyVoucher(voucher, subtotal, now); err != nil {
				return err
			}
		}

		total := subtotal.Sub(discount)
		txn = models.Transaction{
			Number:        "TXN-" + now.Format("20060102") + "-" + utils.GenerateRandomString(6),
			CustomerID:    in.CustomerID,
			StoreID:       in.StoreID,
			CreatedByID:   in.CreatedByID,
			PurchasedAt:   in.PurchasedAt,
			Subtotal:      subtotal,
			Discount:      discount,
			Total:         total,
			PointsEarned:  PointsForPurchase(total, customer.Tier),
			PaymentMethod: in.PaymentMethod,
			Items:         items,
		}
		if voucher != nil {
			txn.VoucherID = &voucher.ID
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}

		if voucher != nil {
			CaptureVoucher(voucher, discount, now)
			if err := tx.Model(voucher).Updates(map[string]interface{}{
				"reserved_amount": voucher.ReservedAmount,
				"redeemed_amount": voucher.RedeemedAmount,
				"status":          voucher.Status,
			}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Customer{}).Where("id = ?", in.CustomerID).
			Updates(map[string]interface{}{
				"total_visits": gorm.Expr("total_visits + ?", 1),
				"total_spent":  gorm.Expr("total_spent + ?", total),
				"last_visit":   in.PurchasedAt,
			}).Error; err != nil {
			return err
		}

		_, err := s.AwardPoints(tx, in.CustomerID, txn.PointsEarned, ReasonPurchase, "transaction", &txn.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	Emit(s.events, SubjectTransactionCreated, map[string]interface{}{
		"transactionId": txn.ID,
		"customerId":    txn.CustomerID,
		"total":         txn.Total,
		"pointsEarned":  txn.PointsEarned,
	})
	return &txn, nil
}
