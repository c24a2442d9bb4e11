package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

type CreateWorkOrderInput struct {
	StoreID       uuid.UUID  `json:"storeId" binding:"required"`
	AppointmentID *uuid.UUID `json:"appointmentId"`
	ServiceType   string     `json:"serviceType" binding:"required"`
	Description   string     `json:"description" binding:"required,max=2000"`
	Priority      string     `json:"priority" binding:"omitempty,oneof=low normal high"`
}

type UpdateWorkOrderStatusInput struct {
	Status string `json:"status" binding:"required,oneof=in_progress completed cancelled"`
	Note   string `json:"note" binding:"max=500"`
}

type WorkOrderController struct {
	Notifier *services.Notifier
	Events   services.Publisher
}

func newWorkOrderNumber(now time.Time) string {
	return "WO-" + now.Format("20060102") + "-" + utils.GenerateRandomString(6)
}

// CreateWorkOrder submits a service request
func (wc *WorkOrderController) CreateWorkOrder(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var input CreateWorkOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Priority == "" {
		input.Priority = "normal"
	}

	var store models.Store
	if err := config.DB.Where("id = ? AND is_active = ?", input.StoreID, true).First(&store).Error; err != nil {
		respondDBError(c, err, "store")
		return
	}

	if input.AppointmentID != nil {
		var count int64
		if err := config.DB.Model(&models.Appointment{}).
			Where("id = ? AND customer_id = ?", *input.AppointmentID, customerID).
			Count(&count).Error; err != nil {
			respondDBError(c, err, "appointment")
			return
		}
		if count == 0 {
			utils.RespondWithError(c, http.StatusNotFound, "Appointment not found")
			return
		}
	}

	order := models.WorkOrder{
		Number:        newWorkOrderNumber(time.Now()),
		CustomerID:    customerID,
		StoreID:       store.ID,
		AppointmentID: input.AppointmentID,
		ServiceType:   input.ServiceType,
		Description:   input.Description,
		Priority:      input.Priority,
		Status:        models.WorkOrderSubmitted,
		Events: []models.WorkOrderEvent{{
			ToStatus: models.WorkOrderSubmitted,
			Note:     "Work order submitted",
			ActorID:  customerID,
		}},
	}

	if err := config.DB.Create(&order).Error; err != nil {
		respondDBError(c, err, "work order")
		return
	}
	order.Store = store

	services.Emit(wc.Events, services.SubjectWorkOrderCreated, gin.H{
		"workOrderId": order.ID,
		"number":      order.Number,
		"storeId":     store.ID,
		"priority":    order.Priority,
	})
	c.JSON(http.StatusCreated, order)
}

func listWorkOrders(c *gin.Context, q *gorm.DB) {
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	page := utils.ParsePagination(c)

	orders := []models.WorkOrder{}
	if err := q.Preload("Store").Order("created_at DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&orders).Error; err != nil {
		respondDBError(c, err, "work order")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetWorkOrders lists the caller's work orders
func (wc *WorkOrderController) GetWorkOrders(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}
	listWorkOrders(c, config.DB.Where("customer_id = ?", customerID))
}

// GetAllWorkOrders is the staff queue, optionally narrowed to one store
func (wc *WorkOrderController) GetAllWorkOrders(c *gin.Context) {
	var storeID *uuid.UUID
	if raw := c.Query("storeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid store ID format")
			return
		}
		storeID = &id
	}

	q := config.DB.Model(&models.WorkOrder{})
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}
	listWorkOrders(c, q)
}

func (wc *WorkOrderController) loadWorkOrder(c *gin.Context) (*models.WorkOrder, bool) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return nil, false
	}
	orderID, ok := parseIDParam(c, "id", "work order")
	if !ok {
		return nil, false
	}

	q := config.DB.Preload("Store").
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", orderID)
	if !isStaff(c) {
		q = q.Where("customer_id = ?", customerID)
	}

	var order models.WorkOrder
	if err := q.First(&order).Error; err != nil {
		respondDBError(c, err, "work order")
		return nil, false
	}
	return &order, true
}

// GetWorkOrder returns a work order with its status history
func (wc *WorkOrderController) GetWorkOrder(c *gin.Context) {
	order, ok := wc.loadWorkOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateWorkOrderStatus applies a status change and records it as an event
func (wc *WorkOrderController) UpdateWorkOrderStatus(c *gin.Context) {
	var input UpdateWorkOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	order, ok := wc.loadWorkOrder(c)
	if !ok {
		return
	}
	actorID, _ := utils.CurrentCustomerID(c)

	if !isStaff(c) && !services.CanCustomerSetWorkOrder(order.Status, input.Status) {
		utils.RespondWithError(c, http.StatusForbidden, "Only staff can move work orders to "+input.Status)
		return
	}
	if err := services.CheckWorkOrderTransition(order.Status, input.Status); err != nil {
		utils.RespondWithError(c, http.StatusConflict, err.Error())
		return
	}

	now := time.Now()
	updates := map[string]interface{}{"status": input.Status}
	if input.Status == models.WorkOrderCompleted {
		updates["completed_at"] = now
		order.CompletedAt = &now
	}
	event := models.WorkOrderEvent{
		WorkOrderID: order.ID,
		FromStatus:  order.Status,
		ToStatus:    input.Status,
		Note:        input.Note,
		ActorID:     actorID,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WorkOrder{}).Where("id = ? AND status = ?", order.ID, order.Status).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrInvalidTransition
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			utils.RespondWithError(c, http.StatusConflict, "Work order was changed concurrently")
			return
		}
		respondDBError(c, err, "work order")
		return
	}
	order.Status = input.Status
	order.Events = append(order.Events, event)

	if input.Status == models.WorkOrderCompleted && wc.Notifier != nil {
		wc.notifyCompleted(c, *order)
	}

	services.Emit(wc.Events, services.SubjectWorkOrderStatus, gin.H{
		"workOrderId": order.ID,
		"number":      order.Number,
		"from":        event.FromStatus,
		"to":          event.ToStatus,
	})
	c.JSON(http.StatusOK, order)
}

func (wc *WorkOrderController) notifyCompleted(c *gin.Context, order models.WorkOrder) {
	var customer models.Customer
	if err := config.DB.First(&customer, "id = ?", order.CustomerID).Error; err != nil {
		log.WithError(err).WithField("workOrder", order.ID).Warn("customer lookup for notification failed")
		return
	}
	vars := map[string]string{
		"CustomerName": customer.Name,
		"Number":       order.Number,
		"StoreName":    order.Store.Name,
	}
	if err := wc.Notifier.Notify(c.Request.Context(), customer, models.TemplateWorkOrderCompleted, &order.ID, vars); err != nil {
		log.WithError(err).WithField("workOrder", order.ID).Warn("completion message failed")
	}
}
