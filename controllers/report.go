package controllers

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

// ReportController serves admin analytics
type ReportController struct {
	Now func() time.Time
}

type RevenuePeriod struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Growth   float64 `json:"growth"`
}

type RevenueSummary struct {
	Month   RevenuePeriod `json:"month"`
	Quarter RevenuePeriod `json:"quarter"`
	Year    RevenuePeriod `json:"year"`
}

type ProductSummary struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type CustomerSummary struct {
	Name   string  `json:"name"`
	Tier   string  `json:"tier"`
	Visits int     `json:"visits"`
	Spent  float64 `json:"spent"`
}

type PointsSummary struct {
	Issued      int64 `json:"issued"`
	Redeemed    int64 `json:"redeemed"`
	Outstanding int64 `json:"outstanding"`
}

type TierCount struct {
	Tier      string `json:"tier"`
	Customers int64  `json:"customers"`
}

type QuickStatistics struct {
	TotalCustomers       int64   `json:"totalCustomers"`
	TotalTransactions    int64   `json:"totalTransactions"`
	AvgOrderValue        float64 `json:"avgOrderValue"`
	OpenWorkOrders       int64   `json:"openWorkOrders"`
	UpcomingAppointments int64   `json:"upcomingAppointments"`
}

type AnalyticsSummary struct {
	Revenue          RevenueSummary    `json:"revenue"`
	TopProducts      []ProductSummary  `json:"topProducts"`
	TopCustomers     []CustomerSummary `json:"topCustomers"`
	Points           PointsSummary     `json:"points"`
	TierDistribution []TierCount       `json:"tierDistribution"`
	QuickStats       QuickStatistics   `json:"quickStats"`
}

type period struct {
	start, end time.Time
}

func (rc *ReportController) now() time.Time {
	if rc.Now != nil {
		return rc.Now()
	}
	return time.Now()
}

// GetReportAnalytics returns revenue growth, best sellers, points flow and tier mix
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	now := rc.now()
	month, quarter, year := periodsFor(now)

	var summary AnalyticsSummary
	var err error

	if summary.Revenue.Month, err = rc.revenuePeriod(month); err != nil {
		rc.fail(c, err, "Failed to get monthly revenue")
		return
	}
	if summary.Revenue.Quarter, err = rc.revenuePeriod(quarter); err != nil {
		rc.fail(c, err, "Failed to get quarterly revenue")
		return
	}
	if summary.Revenue.Year, err = rc.revenuePeriod(year); err != nil {
		rc.fail(c, err, "Failed to get yearly revenue")
		return
	}
	if summary.TopProducts, err = rc.getTopProducts(month, 5); err != nil {
		rc.fail(c, err, "Failed to get top products")
		return
	}
	if summary.TopCustomers, err = rc.getTopCustomers(month, 5); err != nil {
		rc.fail(c, err, "Failed to get top customers")
		return
	}
	if summary.Points, err = rc.getPointsSummary(); err != nil {
		rc.fail(c, err, "Failed to get points summary")
		return
	}
	if summary.TierDistribution, err = rc.getTierDistribution(); err != nil {
		rc.fail(c, err, "Failed to get tier distribution")
		return
	}
	if summary.QuickStats, err = rc.getQuickStatistics(now); err != nil {
		rc.fail(c, err, "Failed to get quick statistics")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (rc *ReportController) fail(c *gin.Context, err error, msg string) {
	log.WithError(err).Error(msg)
	utils.RespondWithError(c, http.StatusInternalServerError, msg)
}

// periodsFor returns the current month, quarter and year as half-open ranges.
func periodsFor(now time.Time) (month, quarter, year period) {
	loc := now.Location()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	quarterStart := time.Date(now.Year(), time.Month((int(now.Month())-1)/3*3+1), 1, 0, 0, 0, 0, loc)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)

	month = period{monthStart, monthStart.AddDate(0, 1, 0)}
	quarter = period{quarterStart, quarterStart.AddDate(0, 3, 0)}
	year = period{yearStart, yearStart.AddDate(1, 0, 0)}
	return
}

func (p period) previous() period {
	length := p.end.Sub(p.start)
	switch {
	case length > 300*24*time.Hour:
		return period{p.start.AddDate(-1, 0, 0), p.start}
	case length > 60*24*time.Hour:
		return period{p.start.AddDate(0, -3, 0), p.start}
	default:
		return period{p.start.AddDate(0, -1, 0), p.start}
	}
}

// growthPercent is the change from previous to current, rounded to 0.1.
func growthPercent(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return math.Round((current-previous)/previous*1000) / 10
}

func (rc *ReportController) revenuePeriod(p period) (RevenuePeriod, error) {
	current, err := rc.getRevenue(p)
	if err != nil {
		return RevenuePeriod{}, err
	}
	previous, err := rc.getRevenue(p.previous())
	if err != nil {
		return RevenuePeriod{}, err
	}
	return RevenuePeriod{Current: current, Previous: previous, Growth: growthPercent(current, previous)}, nil
}

func (rc *ReportController) getRevenue(p period) (float64, error) {
	var total float64
	err := config.DB.Model(&models.Transaction{}).
		Where("purchased_at >= ? AND purchased_at < ?", p.start, p.end).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	return total, err
}

func (rc *ReportController) getTopProducts(p period, limit int) ([]ProductSummary, error) {
	products := []ProductSummary{}
	err := config.DB.Table("transaction_items").
		Select("transaction_items.product_name AS name, SUM(transaction_items.quantity) AS quantity, SUM(transaction_items.total_price) AS revenue").
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.purchased_at >= ? AND transactions.purchased_at < ?", p.start, p.end).
		Group("transaction_items.product_name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&products).Error
	return products, err
}

func (rc *ReportController) getTopCustomers(p period, limit int) ([]CustomerSummary, error) {
	customers := []CustomerSummary{}
	err := config.DB.Table("transactions").
		Select("customers.name, customers.tier, COUNT(transactions.id) AS visits, SUM(transactions.total) AS spent").
		Joins("JOIN customers ON customers.id = transactions.customer_id").
		Where("transactions.purchased_at >= ? AND transactions.purchased_at < ? AND customers.deleted_at IS NULL", p.start, p.end).
		Group("customers.id, customers.name, customers.tier").
		Order("spent DESC").
		Limit(limit).
		Scan(&customers).Error
	return customers, err
}

func (rc *ReportController) getPointsSummary() (PointsSummary, error) {
	var summary PointsSummary
	err := config.DB.Model(&models.PointsLedger{}).
		Select("COALESCE(SUM(CASE WHEN points > 0 THEN points ELSE 0 END), 0) AS issued, " +
			"COALESCE(SUM(CASE WHEN points < 0 THEN -points ELSE 0 END), 0) AS redeemed").
		Scan(&summary).Error
	if err != nil {
		return summary, err
	}
	err = config.DB.Model(&models.Customer{}).
		Select("COALESCE(SUM(points_balance), 0)").
		Scan(&summary.Outstanding).Error
	return summary, err
}

// getTierDistribution reports every tier, including empty ones, in ladder order.
func (rc *ReportController) getTierDistribution() ([]TierCount, error) {
	var rows []TierCount
	if err := config.DB.Model(&models.Customer{}).
		Select("tier, COUNT(*) AS customers").
		Group("tier").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[services.TierByName(r.Tier).Name] += r.Customers
	}
	out := make([]TierCount, 0, len(services.Tiers))
	for _, t := range services.Tiers {
		out = append(out, TierCount{Tier: t.Name, Customers: counts[t.Name]})
	}
	return out, nil
}

func (rc *ReportController) getQuickStatistics(now time.Time) (QuickStatistics, error) {
	var stats QuickStatistics

	if err := config.DB.Model(&models.Customer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return stats, err
	}

	var totalRevenue float64
	if err := config.DB.Model(&models.Transaction{}).Count(&stats.TotalTransactions).Error; err != nil {
		return stats, err
	}
	if err := config.DB.Model(&models.Transaction{}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return stats, err
	}
	if stats.TotalTransactions > 0 {
		stats.AvgOrderValue = math.Round(totalRevenue/float64(stats.TotalTransactions)*100) / 100
	}

	if err := config.DB.Model(&models.WorkOrder{}).
		Where("status IN ?", []string{models.WorkOrderSubmitted, models.WorkOrderInProgress}).
		Count(&stats.OpenWorkOrders).Error; err != nil {
		return stats, err
	}
	if err := config.DB.Model(&models.Appointment{}).
		Where("scheduled_at >= ? AND status IN ?", now, []string{models.AppointmentScheduled, models.AppointmentConfirmed}).
		Count(&stats.UpcomingAppointments).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
