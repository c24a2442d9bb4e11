package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

type UpcomingAppointment struct {
	models.Appointment
	When string `json:"when"` // "Today", "Tomorrow", "3 days"
}

type DashboardOverview struct {
	Customer             models.Customer       `json:"customer"`
	Loyalty              services.TierProgress `json:"loyalty"`
	UpcomingAppointments []UpcomingAppointment `json:"upcomingAppointments"`
	OpenWorkOrders       []models.WorkOrder    `json:"openWorkOrders"`
	RecentTransactions   []models.Transaction  `json:"recentTransactions"`
	WishlistCount        int64                 `json:"wishlistCount"`
	ActiveVouchers       []models.Voucher      `json:"activeVouchers"`
}

// GetDashboardOverview assembles the caller's home screen
func GetDashboardOverview(c *gin.Context) {
	customer, ok := loadCustomer(c)
	if !ok {
		return
	}

	now := time.Now()
	overview := DashboardOverview{
		Customer:             *customer,
		Loyalty:              services.ProgressFor(customer.PointsBalance, customer.LifetimePoints),
		UpcomingAppointments: []UpcomingAppointment{},
		OpenWorkOrders:       []models.WorkOrder{},
		RecentTransactions:   []models.Transaction{},
		ActiveVouchers:       []models.Voucher{},
	}

	var appointments []models.Appointment
	g, ctx := errgroup.WithContext(c.Request.Context())

	g.Go(func() error {
		return config.DB.WithContext(ctx).Preload("Store").
			Where("customer_id = ? AND scheduled_at >= ? AND status IN ?", customer.ID, now,
				[]string{models.AppointmentScheduled, models.AppointmentConfirmed}).
			Order("scheduled_at ASC").Limit(3).
			Find(&appointments).Error
	})
	g.Go(func() error {
		return config.DB.WithContext(ctx).Preload("Store").
			Where("customer_id = ? AND status IN ?", customer.ID,
				[]string{models.WorkOrderSubmitted, models.WorkOrderInProgress}).
			Order("created_at DESC").
			Find(&overview.OpenWorkOrders).Error
	})
	g.Go(func() error {
		return config.DB.WithContext(ctx).Preload("Items").
			Where("customer_id = ?", customer.ID).
			Order("purchased_at DESC").Limit(3).
			Find(&overview.RecentTransactions).Error
	})
	g.Go(func() error {
		return config.DB.WithContext(ctx).Model(&models.WishlistItem{}).
			Where("customer_id = ?", customer.ID).
			Count(&overview.WishlistCount).Error
	})
	g.Go(func() error {
		return config.DB.WithContext(ctx).
			Where("customer_id = ? AND status = ? AND (expires_at IS NULL OR expires_at > ?)",
				customer.ID, models.VoucherActive, now).
			Order("expires_at ASC").
			Find(&overview.ActiveVouchers).Error
	})

	if err := g.Wait(); err != nil {
		respondDBError(c, err, "dashboard")
		return
	}

	for _, a := range appointments {
		overview.UpcomingAppointments = append(overview.UpcomingAppointments, UpcomingAppointment{
			Appointment: a,
			When:        utils.RelativeDayLabel(now.In(a.Store.Location()), a.ScheduledAt.In(a.Store.Location())),
		})
	}

	c.JSON(http.StatusOK, overview)
}
