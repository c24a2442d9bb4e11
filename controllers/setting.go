package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loyalty-backend/models"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

type UpdateSettingInput struct {
	Value       string  `json:"value" binding:"max=2000"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	IsPublic    *bool   `json:"isPublic"`
}

type SettingController struct {
	Settings *services.SettingsService
}

// GetPublicSettings returns every public setting as a key/value map
func (sc *SettingController) GetPublicSettings(c *gin.Context) {
	settings, err := sc.Settings.Public(c.Request.Context())
	if err != nil {
		respondDBError(c, err, "setting")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetSetting hides private keys from non-admins
func (sc *SettingController) GetSetting(c *gin.Context) {
	setting, err := sc.Settings.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondDBError(c, err, "setting")
		return
	}
	if !setting.IsPublic && utils.CurrentRole(c) != models.RoleAdmin {
		utils.RespondWithError(c, http.StatusNotFound, "Setting not found")
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (sc *SettingController) UpdateSetting(c *gin.Context) {
	var input UpdateSettingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	key := c.Param("key")
	if key == "" || len(key) > 100 {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid setting key")
		return
	}

	setting := models.SystemSetting{Key: key, Value: input.Value}
	if current, err := sc.Settings.Get(c.Request.Context(), key); err == nil {
		setting.Description = current.Description
		setting.IsPublic = current.IsPublic
	}
	if input.Description != nil {
		setting.Description = *input.Description
	}
	if input.IsPublic != nil {
		setting.IsPublic = *input.IsPublic
	}

	if err := sc.Settings.Upsert(c.Request.Context(), &setting); err != nil {
		respondDBError(c, err, "setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}
