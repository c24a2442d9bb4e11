package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/utils"
)

type CreateTemplateInput struct {
	Type    string `json:"type" binding:"required,oneof=appointment_reminder appointment_confirmed work_order_completed"`
	Message string `json:"message" binding:"required,max=480"`
}

type UpdateTemplateInput struct {
	Message  *string `json:"message" binding:"omitempty,min=1,max=480"`
	IsActive *bool   `json:"isActive"`
}

// CreateTemplate adds the SMS body for a notification type
func CreateTemplate(c *gin.Context) {
	var input CreateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existing models.MessageTemplate
	if err := config.DB.Where("type = ?", input.Type).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondDBError(c, err, "template")
		return
	}

	template := models.MessageTemplate{
		Type:     input.Type,
		Message:  input.Message,
		IsActive: true,
	}
	if err := config.DB.Create(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
			return
		}
		respondDBError(c, err, "template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

func GetTemplates(c *gin.Context) {
	templates := []models.MessageTemplate{}
	if err := config.DB.Order("type").Find(&templates).Error; err != nil {
		respondDBError(c, err, "template")
		return
	}
	c.JSON(http.StatusOK, templates)
}

func GetTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}

	var template models.MessageTemplate
	if err := config.DB.First(&template, "id = ?", id).Error; err != nil {
		respondDBError(c, err, "template")
		return
	}
	c.JSON(http.StatusOK, template)
}

func UpdateTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}

	var input UpdateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var template models.MessageTemplate
	if err := config.DB.First(&template, "id = ?", id).Error; err != nil {
		respondDBError(c, err, "template")
		return
	}
	if input.Message != nil {
		template.Message = *input.Message
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&template).Error; err != nil {
		respondDBError(c, err, "template")
		return
	}
	c.JSON(http.StatusOK, template)
}

func DeleteTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "template")
	if !ok {
		return
	}

	result := config.DB.Delete(&models.MessageTemplate{}, "id = ?", id)
	if result.Error != nil {
		respondDBError(c, result.Error, "template")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
