package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,phone"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

type AuthController struct {
	Secret   string
	TokenTTL time.Duration
	Loyalty  *services.LoyaltyService
	Settings *services.SettingsService
}

func (ac *AuthController) issueToken(c *gin.Context, customer models.Customer) (string, bool) {
	token, err := utils.GenerateToken(ac.Secret, ac.TokenTTL, customer.ID.String(), customer.Role)
	if err != nil {
		log.WithError(err).Error("failed to sign token")
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return "", false
	}

	c.SetCookie(utils.TokenCookie, token, int(ac.TokenTTL.Seconds()), "/", "", true, true)
	return token, true
}

func (ac *AuthController) Register(c *gin.Context) {
	// Emails are normalized before validation so padded input still passes the email tag.
	var input RegisterInput
	if err := json.NewDecoder(c.Request.Body).Decode(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if err := binding.Validator.ValidateStruct(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Check if email or phone already exists
	var existing models.Customer
	err := config.DB.Where("email = ? OR phone = ?", input.Email, input.Phone).First(&existing).Error
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondDBError(c, err, "customer")
		return
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	bonus := ac.Settings.Int(c.Request.Context(), services.SettingWelcomeBonus, 100)
	customer := models.Customer{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: hashed,
		Role:     models.RoleCustomer,
		Tier:     services.Tiers[0].Name,
		IsActive: true,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}
		awarded, err := ac.Loyalty.AwardPoints(tx, customer.ID, bonus, services.ReasonWelcomeBonus, "customer", &customer.ID)
		if err != nil {
			return err
		}
		customer = *awarded
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
			return
		}
		respondDBError(c, err, "customer")
		return
	}

	token, ok := ac.issueToken(c, customer)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Registration successful",
		"token":    token,
		"customer": customer,
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)

	var customer models.Customer
	if err := config.DB.Where("email = ? OR phone = ?", strings.ToLower(identifier), identifier).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			respondDBError(c, err, "customer")
		}
		return
	}

	if !utils.CheckPasswordHash(input.Password, customer.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !customer.IsActive {
		utils.RespondWithError(c, http.StatusUnauthorized, "Account is disabled")
		return
	}

	token, ok := ac.issueToken(c, customer)
	if !ok {
		return
	}

	now := time.Now()
	if err := config.DB.Model(&customer).Update("last_login", &now).Error; err != nil {
		log.WithError(err).WithField("customer", customer.ID).Warn("failed to record last login")
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"customer": customer,
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	customerID, ok := currentCustomer(c)
	if !ok {
		return
	}

	var customer models.Customer
	if err := config.DB.First(&customer, "id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Customer not found")
			return
		}
		respondDBError(c, err, "customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer": customer,
		"loyalty":  services.ProgressFor(customer.PointsBalance, customer.LifetimePoints),
	})
}
