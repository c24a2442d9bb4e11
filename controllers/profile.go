package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/utils"
)

type UpdateProfileInput struct {
	Name             *string    `json:"name" binding:"omitempty,min=1,max=100"`
	Phone            *string    `json:"phone" binding:"omitempty,phone"`
	Address          *string    `json:"address" binding:"omitempty,max=255"`
	Birthday         *string    `json:"birthday"` // YYYY-MM-DD, empty clears it
	MarketingOptIn   *bool      `json:"marketingOptIn"`
	PreferredStoreID *uuid.UUID `json:"preferredStoreId"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,nefield=CurrentPassword"`
}

func GetProfile(c *gin.Context) {
	customer, ok := loadCustomer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, customer)
}

func UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	customer, ok := loadCustomer(c)
	if !ok {
		return
	}

	if input.Phone != nil && *input.Phone != customer.Phone {
		var taken int64
		if err := config.DB.Model(&models.Customer{}).
			Where("phone = ? AND id <> ?", *input.Phone, customer.ID).
			Count(&taken).Error; err != nil {
			respondDBError(c, err, "customer")
			return
		}
		if taken > 0 {
			utils.RespondWithError(c, http.StatusConflict, "Phone already registered")
			return
		}
		customer.Phone = *input.Phone
	}
	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.Address != nil {
		customer.Address = *input.Address
	}
	if input.Birthday != nil {
		if *input.Birthday == "" {
			customer.Birthday = nil
		} else {
			birthday, err := time.Parse("2006-01-02", *input.Birthday)
			if err != nil || birthday.After(time.Now()) {
				utils.RespondWithError(c, http.StatusBadRequest, "birthday must be a past date as YYYY-MM-DD")
				return
			}
			customer.Birthday = &birthday
		}
	}
	if input.MarketingOptIn != nil {
		customer.MarketingOptIn = *input.MarketingOptIn
	}
	if input.PreferredStoreID != nil {
		var stores int64
		if err := config.DB.Model(&models.Store{}).Where("id = ?", *input.PreferredStoreID).Count(&stores).Error; err != nil {
			respondDBError(c, err, "store")
			return
		}
		if stores == 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Store not found")
			return
		}
		customer.PreferredStoreID = input.PreferredStoreID
	}

	if err := config.DB.Save(customer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondWithError(c, http.StatusConflict, "Phone already registered")
			return
		}
		respondDBError(c, err, "customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "customer": customer})
}

func ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	customer, ok := loadCustomer(c)
	if !ok {
		return
	}
	if !utils.CheckPasswordHash(input.CurrentPassword, customer.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	if err := config.DB.Model(customer).Update("password", hashed).Error; err != nil {
		respondDBError(c, err, "customer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
