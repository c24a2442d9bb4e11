package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

type UpdateCustomerInput struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Role     *string `json:"role" binding:"omitempty,oneof=customer staff admin"`
	IsActive *bool   `json:"isActive"`
}

type GrantPointsInput struct {
	Points int    `json:"points" binding:"required,min=1,max=100000"`
	Note   string `json:"note" binding:"max=255"`
}

type CustomerPage struct {
	Items    []models.Customer `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

type CustomerController struct {
	Loyalty *services.LoyaltyService
}

// GetCustomers lists customers for admins, filtered by search, tier and role
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	page := utils.ParsePagination(c)

	query := config.DB.Model(&models.Customer{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", like, like, like)
	}
	if tier := c.Query("tier"); tier != "" {
		query = query.Where("tier = ?", services.TierByName(tier).Name)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondDBError(c, err, "customer")
		return
	}

	customers := []models.Customer{}
	if err := query.Order("created_at DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&customers).Error; err != nil {
		respondDBError(c, err, "customer")
		return
	}

	c.JSON(http.StatusOK, CustomerPage{Items: customers, Total: total, Page: page.Page, PageSize: page.PageSize})
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	var customer models.Customer
	if err := config.DB.First(&customer, "id = ?", id).Error; err != nil {
		respondDBError(c, err, "customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
		"loyalty":  services.ProgressFor(customer.PointsBalance, customer.LifetimePoints),
	})
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var customer models.Customer
	if err := config.DB.First(&customer, "id = ?", id).Error; err != nil {
		respondDBError(c, err, "customer")
		return
	}

	if callerID, _ := utils.CurrentCustomerID(c); callerID == customer.ID {
		if (input.Role != nil && *input.Role != customer.Role) || (input.IsActive != nil && !*input.IsActive) {
			utils.RespondWithError(c, http.StatusBadRequest, "Cannot change your own role or deactivate yourself")
			return
		}
	}

	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.Role != nil {
		customer.Role = *input.Role
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&customer).Error; err != nil {
		respondDBError(c, err, "customer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

// GrantPoints credits goodwill points to a customer
func (cc *CustomerController) GrantPoints(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}

	var input GrantPointsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var customer *models.Customer
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		customer, err = cc.Loyalty.AwardPoints(tx, id, input.Points, services.ReasonGoodwill, "customer", &id)
		return err
	})
	if err != nil {
		respondDBError(c, err, "customer")
		return
	}
	adminID, _ := utils.CurrentCustomerID(c)
	log.WithFields(log.Fields{
		"customer": id,
		"admin":    adminID,
		"points":   input.Points,
		"note":     input.Note,
	}).Info("goodwill points granted")

	c.JSON(http.StatusOK, gin.H{
		"customer":      customer,
		"pointsAwarded": input.Points,
	})
}

// DeleteCustomer soft deletes a customer
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "customer")
	if !ok {
		return
	}
	if callerID, _ := utils.CurrentCustomerID(c); callerID == id {
		utils.RespondWithError(c, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	result := config.DB.Delete(&models.Customer{}, "id = ?", id)
	if result.Error != nil {
		respondDBError(c, result.Error, "customer")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}
