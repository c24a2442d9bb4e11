package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"loyalty-backend/config"
	"loyalty-backend/services"
)

type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

type WebManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	ThemeColor      string         `json:"theme_color"`
	BackgroundColor string         `json:"background_color"`
	Icons           []ManifestIcon `json:"icons"`
}

type PWAController struct {
	Settings *services.SettingsService
}

// GetManifest builds the web app manifest from settings
func (pc *PWAController) GetManifest(c *gin.Context) {
	ctx := c.Request.Context()
	manifest := WebManifest{
		Name:            pc.Settings.String(ctx, services.SettingAppName, "Loyalty Club"),
		ShortName:       pc.Settings.String(ctx, services.SettingAppShortName, "Loyalty"),
		StartURL:        "/",
		Display:         "standalone",
		ThemeColor:      pc.Settings.String(ctx, services.SettingAppThemeColor, "#1f2937"),
		BackgroundColor: pc.Settings.String(ctx, services.SettingAppBackground, "#ffffff"),
		Icons: []ManifestIcon{
			{Src: "/icons/icon-192.png", Sizes: "192x192", Type: "image/png"},
			{Src: "/icons/icon-512.png", Sizes: "512x512", Type: "image/png"},
		},
	}

	c.Header("Content-Type", "application/manifest+json")
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, manifest)
}

func HealthCheck(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok"}

	sqlDB, err := config.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.WithError(err).Warn("health check: database unreachable")
		status["status"] = "degraded"
		status["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
