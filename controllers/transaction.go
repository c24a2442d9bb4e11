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

// TransactionItemInput defines one purchased line
type TransactionItemInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateTransactionInput is what the till posts for a completed purchase
type CreateTransactionInput struct {
	CustomerID    uuid.UUID              `json:"customerId" binding:"required"`
	StoreID       uuid.UUID              `json:"storeId" binding:"required"`
	PurchasedAt   *time.Time             `json:"purchasedAt"`
	Items         []TransactionItemInput `json:"items" binding:"required,min=1,dive"`
	VoucherCode   string                 `json:"voucherCode"`
	PaymentMethod string                 `json:"paymentMethod" binding:"required,oneof=card cash wallet"`
}

type TransactionPage struct {
	Items    []models.Transaction `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

type MonthlySpend struct {
	Month string          `json:"month"` // YYYY-MM
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

type TransactionSummary struct {
	Count        int64           `json:"count"`
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	TotalSaved   decimal.Decimal `json:"totalSaved"`
	PointsEarned int64           `json:"pointsEarned"`
	ByMonth      []MonthlySpend  `json:"byMonth"`
}

type TransactionController struct {
	Loyalty *services.LoyaltyService
}

// CreateTransaction records a purchase for a customer and credits points
func (tc *TransactionController) CreateTransaction(c *gin.Context) {
	staffID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var input CreateTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var storeCount int64
	if err := config.DB.Model(&models.Store{}).Where("id = ?", input.StoreID).Count(&storeCount).Error; err != nil {
		respondDBError(c, err, "store")
		return
	}
	if storeCount == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Store not found")
		return
	}

	purchase := services.PurchaseInput{
		CustomerID:    input.CustomerID,
		StoreID:       input.StoreID,
		CreatedByID:   staffID,
		VoucherCode:   input.VoucherCode,
		PaymentMethod: input.PaymentMethod,
	}
	if input.PurchasedAt != nil {
		purchase.PurchasedAt = *input.PurchasedAt
	}
	for _, item := range input.Items {
		purchase.Items = append(purchase.Items, services.PurchaseItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	txn, err := tc.Loyalty.RecordPurchase(c.Request.Context(), purchase)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, txn)
	case errors.Is(err, services.ErrOutOfStock):
		utils.RespondWithError(c, http.StatusConflict, "Not enough stock for one of the items")
	case errors.Is(err, services.ErrVoucherUnusable):
		utils.RespondWithError(c, http.StatusConflict, "Voucher cannot be applied")
	default:
		respondDBError(c, err, "transaction")
	}
}

// GetTransactions lists the caller's purchases
func (tc *TransactionController) GetTransactions(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	page := utils.ParsePagination(c)

	var filters []func(*gorm.DB) *gorm.DB
	if raw := c.Query("from"); raw != "" {
		from, err := utils.ParseDate(raw, time.UTC)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		filters = append(filters, func(db *gorm.DB) *gorm.DB { return db.Where("purchased_at >= ?", from) })
	}
	if raw := c.Query("to"); raw != "" {
		to, err := utils.ParseDate(raw, time.UTC)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		filters = append(filters, func(db *gorm.DB) *gorm.DB { return db.Where("purchased_at < ?", to.AddDate(0, 0, 1)) })
	}
	if raw := c.Query("storeId"); raw != "" {
		storeID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid store ID format")
			return
		}
		filters = append(filters, func(db *gorm.DB) *gorm.DB { return db.Where("store_id = ?", storeID) })
	}

	q := config.DB.Model(&models.Transaction{}).Where("customer_id = ?", customerID).Scopes(filters...)

	out := TransactionPage{Items: []models.Transaction{}, Page: page.Page, PageSize: page.PageSize}
	if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		respondDBError(c, err, "transaction")
		return
	}
	if err := q.Session(&gorm.Session{}).Preload("Items").Preload("Store").
		Order("purchased_at DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&out.Items).Error; err != nil {
		respondDBError(c, err, "transaction")
		return
	}

	c.JSON(http.StatusOK, out)
}

// GetTransaction returns one purchase with its items
func (tc *TransactionController) GetTransaction(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	txnID, ok := parseIDParam(c, "id", "transaction")
	if !ok {
		return
	}

	q := config.DB.Preload("Items").Preload("Store").Where("id = ?", txnID)
	if !isStaff(c) {
		q = q.Where("customer_id = ?", customerID)
	}

	var txn models.Transaction
	if err := q.First(&txn).Error; err != nil {
		respondDBError(c, err, "transaction")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// GetTransactionSummary aggregates lifetime spend and the last twelve months
func (tc *TransactionController) GetTransactionSummary(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var totals struct {
		Count        int64
		TotalSpent   decimal.Decimal
		TotalSaved   decimal.Decimal
		PointsEarned int64
	}
	if err := config.DB.Model(&models.Transaction{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total), 0) AS total_spent, "+
			"COALESCE(SUM(discount), 0) AS total_saved, COALESCE(SUM(points_earned), 0) AS points_earned").
		Where("customer_id = ?", customerID).
		Scan(&totals).Error; err != nil {
		respondDBError(c, err, "transaction")
		return
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)

	var rows []MonthlySpend
	if err := config.DB.Model(&models.Transaction{}).
		Select("TO_CHAR(DATE_TRUNC('month', purchased_at), 'YYYY-MM') AS month, "+
			"COALESCE(SUM(total), 0) AS total, COUNT(*) AS count").
		Where("customer_id = ? AND purchased_at >= ?", customerID, start).
		Group("month").
		Scan(&rows).Error; err != nil {
		respondDBError(c, err, "transaction")
		return
	}

	c.JSON(http.StatusOK, TransactionSummary{
		Count:        totals.Count,
		TotalSpent:   totals.TotalSpent,
		TotalSaved:   totals.TotalSaved,
		PointsEarned: totals.PointsEarned,
		ByMonth:      fillMonths(start, rows),
	})
}

// fillMonths returns twelve consecutive months from start, zero filled.
func fillMonths(start time.Time, rows []MonthlySpend) []MonthlySpend {
	byKey := make(map[string]MonthlySpend, len(rows))
	for _, r := range rows {
		byKey[r.Month] = r
	}

	out := make([]MonthlySpend, 0, 12)
	for i := 0; i < 12; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		m, ok := byKey[key]
		if !ok {
			m = MonthlySpend{Month: key, Total: decimal.Zero}
		}
		out = append(out, m)
	}
	return out
}
