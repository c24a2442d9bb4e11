package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

var errSlotFull = errors.New("slot is fully booked")

type CreateAppointmentInput struct {
	StoreID     uuid.UUID `json:"storeId" binding:"required"`
	ServiceType string    `json:"serviceType" binding:"required"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required,future"`
	Notes       string    `json:"notes" binding:"max=500"`
}

type UpdateAppointmentStatusInput struct {
	Status string `json:"status" binding:"required,oneof=confirmed completed cancelled"`
}

type AppointmentController struct {
	Loyalty  *services.LoyaltyService
	Notifier *services.Notifier
	Settings *services.SettingsService
	Events   services.Publisher
}

// CreateAppointment books a service slot at a store
func (ac *AppointmentController) CreateAppointment(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	appointment := models.Appointment{
		CustomerID:      customerID,
		StoreID:         input.StoreID,
		ServiceType:     input.ServiceType,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: int(services.SlotLength.Minutes()),
		Status:          models.AppointmentScheduled,
		Notes:           input.Notes,
	}

	var store models.Store
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		// Lock the store row so concurrent bookings count the same slot serially.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_active = ?", input.StoreID, true).First(&store).Error; err != nil {
			return err
		}
		if !store.Services.Contains(input.ServiceType) {
			return errBadRequest("Store does not offer " + input.ServiceType)
		}
		if !services.FitsOpeningHours(store, input.ScheduledAt, services.SlotLength) {
			return errBadRequest("Store is closed at that time")
		}
		if !services.IsSlotStart(store, input.ScheduledAt) {
			return errBadRequest("scheduledAt must start on a 30 minute slot")
		}

		var booked int64
		if err := tx.Model(&models.Appointment{}).
			Where("store_id = ? AND scheduled_at = ? AND status IN ?", store.ID, input.ScheduledAt,
				[]string{models.AppointmentScheduled, models.AppointmentConfirmed}).
			Count(&booked).Error; err != nil {
			return err
		}
		if int(booked) >= store.Bays {
			return errSlotFull
		}

		return tx.Create(&appointment).Error
	})
	if err != nil {
		var br badRequestError
		switch {
		case errors.As(err, &br):
			utils.RespondWithError(c, http.StatusBadRequest, br.Error())
		case errors.Is(err, errSlotFull):
			utils.RespondWithError(c, http.StatusConflict, "Selected slot is fully booked")
		default:
			respondDBError(c, err, "store")
		}
		return
	}
	appointment.Store = store

	services.Emit(ac.Events, services.SubjectAppointmentCreated, gin.H{
		"appointmentId": appointment.ID,
		"customerId":    customerID,
		"storeId":       store.ID,
		"scheduledAt":   appointment.ScheduledAt,
	})
	c.JSON(http.StatusCreated, appointment)
}

// GetAppointments lists the caller's appointments
func (ac *AppointmentController) GetAppointments(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	q := config.DB.Preload("Store").Where("customer_id = ?", customerID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if upcoming, _ := strconv.ParseBool(c.Query("upcoming")); upcoming {
		q = q.Where("scheduled_at >= ? AND status IN ?", time.Now(),
			[]string{models.AppointmentScheduled, models.AppointmentConfirmed}).
			Order("scheduled_at ASC")
	} else {
		q = q.Order("scheduled_at DESC")
	}

	appointments := []models.Appointment{}
	if err := q.Find(&appointments).Error; err != nil {
		respondDBError(c, err, "appointment")
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// GetStoreAppointments is the staff view of bookings, filtered by store and day
func (ac *AppointmentController) GetStoreAppointments(c *gin.Context) {
	q := config.DB.Preload("Store").Order("scheduled_at ASC")
	if raw := c.Query("storeId"); raw != "" {
		storeID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid store ID format")
			return
		}
		q = q.Where("store_id = ?", storeID)
	}
	if raw := c.Query("date"); raw != "" {
		day, err := utils.ParseDate(raw, time.UTC)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		q = q.Where("scheduled_at >= ? AND scheduled_at < ?", day, day.AddDate(0, 0, 1))
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	appointments := []models.Appointment{}
	if err := q.Limit(200).Find(&appointments).Error; err != nil {
		respondDBError(c, err, "appointment")
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (ac *AppointmentController) loadAppointment(c *gin.Context, tx *gorm.DB) (*models.Appointment, bool) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return nil, false
	}
	appointmentID, ok := parseIDParam(c, "id", "appointment")
	if !ok {
		return nil, false
	}

	q := tx.Preload("Store").Where("id = ?", appointmentID)
	if !isStaff(c) {
		q = q.Where("customer_id = ?", customerID)
	}

	var appointment models.Appointment
	if err := q.First(&appointment).Error; err != nil {
		respondDBError(c, err, "appointment")
		return nil, false
	}
	return &appointment, true
}

// GetAppointment returns one appointment
func (ac *AppointmentController) GetAppointment(c *gin.Context) {
	appointment, ok := ac.loadAppointment(c, config.DB)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, appointment)
}

// UpdateAppointmentStatus moves an appointment through its lifecycle
func (ac *AppointmentController) UpdateAppointmentStatus(c *gin.Context) {
	var input UpdateAppointmentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	appointment, ok := ac.loadAppointment(c, config.DB)
	if !ok {
		return
	}

	if !isStaff(c) && !services.CanCustomerSetAppointment(input.Status) {
		utils.RespondWithError(c, http.StatusForbidden, "Only staff can "+input.Status+" appointments")
		return
	}
	if err := services.CheckAppointmentTransition(appointment.Status, input.Status); err != nil {
		utils.RespondWithError(c, http.StatusConflict, err.Error())
		return
	}

	now := time.Now()
	updates := map[string]interface{}{"status": input.Status}
	switch input.Status {
	case models.AppointmentConfirmed:
		updates["confirmed_at"] = now
		appointment.ConfirmedAt = &now
	case models.AppointmentCompleted:
		updates["completed_at"] = now
		appointment.CompletedAt = &now
	case models.AppointmentCancelled:
		updates["cancelled_at"] = now
		appointment.CancelledAt = &now
	}
	previous := appointment.Status
	appointment.Status = input.Status

	points := 0
	if input.Status == models.AppointmentCompleted {
		points = ac.Settings.Int(c.Request.Context(), services.SettingAppointmentPoints, 50)
	}

	var customer *models.Customer
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Appointment{}).
			Where("id = ? AND status = ?", appointment.ID, previous).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrInvalidTransition
		}

		var err error
		customer, err = ac.Loyalty.AwardPoints(tx, appointment.CustomerID, points,
			services.ReasonAppointmentVisit, "appointment", &appointment.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			utils.RespondWithError(c, http.StatusConflict, "Appointment was changed concurrently")
			return
		}
		respondDBError(c, err, "appointment")
		return
	}

	if input.Status == models.AppointmentConfirmed && ac.Notifier != nil {
		if err := ac.Notifier.NotifyAppointment(c.Request.Context(), *customer, *appointment,
			models.TemplateAppointmentConfirmed); err != nil {
			log.WithError(err).WithField("appointment", appointment.ID).Warn("confirmation message failed")
		}
	}

	services.Emit(ac.Events, services.SubjectAppointmentStatus, gin.H{
		"appointmentId": appointment.ID,
		"from":          previous,
		"to":            input.Status,
		"pointsAwarded": points,
	})
	c.JSON(http.StatusOK, gin.H{"appointment": appointment, "pointsAwarded": points})
}
