package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

type RedeemInput struct {
	RewardID uuid.UUID `json:"rewardId" binding:"required"`
}

type RewardView struct {
	models.Reward
	Affordable bool `json:"affordable"`
	Available  bool `json:"available"`
}

type VoucherBreakdown struct {
	Value     decimal.Decimal `json:"value"`
	Redeemed  decimal.Decimal `json:"redeemed"`
	Reserved  decimal.Decimal `json:"reserved"`
	Remaining decimal.Decimal `json:"remaining"`
}

type VoucherView struct {
	models.Voucher
	Status    string           `json:"status"`
	Breakdown VoucherBreakdown `json:"breakdown"`
}

type LedgerPage struct {
	Items    []models.PointsLedger `json:"items"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"pageSize"`
}

type LoyaltyController struct {
	Loyalty *services.LoyaltyService
}

func loadCustomer(c *gin.Context) (*models.Customer, bool) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return nil, false
	}
	var customer models.Customer
	if err := config.DB.First(&customer, "id = ?", customerID).Error; err != nil {
		respondDBError(c, err, "customer")
		return nil, false
	}
	return &customer, true
}

// GetSummary returns points, tier and progress to the next tier
func (lc *LoyaltyController) GetSummary(c *gin.Context) {
	customer, ok := loadCustomer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, services.ProgressFor(customer.PointsBalance, customer.LifetimePoints))
}

// GetTiers returns the tier table
func (lc *LoyaltyController) GetTiers(c *gin.Context) {
	c.JSON(http.StatusOK, services.Tiers)
}

// GetRewards lists active rewards flagged with what the caller can afford
func (lc *LoyaltyController) GetRewards(c *gin.Context) {
	customer, ok := loadCustomer(c)
	if !ok {
		return
	}

	var rewards []models.Reward
	if err := config.DB.Where("is_active = ?", true).Order("points_cost ASC").Find(&rewards).Error; err != nil {
		respondDBError(c, err, "reward")
		return
	}

	views := make([]RewardView, 0, len(rewards))
	for _, r := range rewards {
		available := r.Stock == nil || *r.Stock > 0
		views = append(views, RewardView{
			Reward:     r,
			Available:  available,
			Affordable: available && customer.PointsBalance >= r.PointsCost,
		})
	}
	c.JSON(http.StatusOK, views)
}

// Redeem exchanges points for a voucher
func (lc *LoyaltyController) Redeem(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var input RedeemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	voucher, err := lc.Loyalty.Redeem(c.Request.Context(), customerID, input.RewardID)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, voucherView(*voucher, time.Now()))
	case errors.Is(err, services.ErrInsufficientPoints):
		utils.RespondWithError(c, http.StatusConflict, "Not enough points for this reward")
	case errors.Is(err, services.ErrRewardUnavailable):
		utils.RespondWithError(c, http.StatusConflict, "Reward is out of stock")
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Reward not found")
	default:
		respondDBError(c, err, "reward")
	}
}

// GetHistory returns the caller's points ledger, newest first
func (lc *LoyaltyController) GetHistory(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	page := utils.ParsePagination(c)

	q := config.DB.Model(&models.PointsLedger{}).Where("customer_id = ?", customerID)
	out := LedgerPage{Items: []models.PointsLedger{}, Page: page.Page, PageSize: page.PageSize}
	if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		respondDBError(c, err, "points history")
		return
	}
	if err := q.Session(&gorm.Session{}).Order("created_at DESC").
		Offset(page.Offset()).Limit(page.PageSize).Find(&out.Items).Error; err != nil {
		respondDBError(c, err, "points history")
		return
	}

	c.JSON(http.StatusOK, out)
}

func voucherView(v models.Voucher, now time.Time) VoucherView {
	return VoucherView{
		Voucher: v,
		Status:  v.StatusAt(now),
		Breakdown: VoucherBreakdown{
			Value:     v.Value,
			Redeemed:  v.RedeemedAmount,
			Reserved:  v.ReservedAmount,
			Remaining: v.Remaining(),
		},
	}
}

// GetVouchers lists the caller's vouchers with their derived status
func (lc *LoyaltyController) GetVouchers(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var vouchers []models.Voucher
	if err := config.DB.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&vouchers).Error; err != nil {
		respondDBError(c, err, "voucher")
		return
	}

	now := time.Now()
	status := c.Query("status")
	views := make([]VoucherView, 0, len(vouchers))
	for _, v := range vouchers {
		view := voucherView(v, now)
		if status != "" && view.Status != status {
			continue
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, views)
}
