package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"loyalty-backend/config"
	"loyalty-backend/models"
	"loyalty-backend/routes"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	config.SetupLogging(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinEnv)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	if err := config.ConnectDB(cfg.DBURL); err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer config.CloseDB()

	if err := config.DB.AutoMigrate(models.AllModels()...); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	if err := services.Seed(config.DB); err != nil {
		log.WithError(err).Fatal("failed to seed defaults")
	}

	adapter, err := gormadapter.NewAdapterByDB(config.DB)
	if err != nil {
		log.WithError(err).Fatal("failed to create policy adapter")
	}
	enforcer, err := utils.NewEnforcer(adapter)
	if err != nil {
		log.WithError(err).Fatal("failed to load authorization policies")
	}

	var cache services.Cache = services.NewMemoryCache()
	if cfg.RedisURL != "" {
		rc, err := services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, using in-memory cache")
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	var events services.Publisher = services.LogPublisher{}
	if cfg.NATSURL != "" {
		np, err := services.NewNATSPublisher(cfg.NATSURL, cfg.NATSToken)
		if err != nil {
			log.WithError(err).Warn("nats unavailable, logging domain events instead")
		} else {
			events = np
		}
	}
	defer events.Close()

	var assistant services.Assistant = services.RuleBasedAssistant{}
	if cfg.AIAPIURL != "" {
		assistant = services.FallbackAssistant{
			Primary:   services.NewHTTPAssistant(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel),
			Secondary: services.RuleBasedAssistant{},
		}
	}

	var sender services.SMSSender = services.LogSender{}
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sender = services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	}

	loyalty := services.NewLoyaltyService(config.DB, events, cfg.VoucherValidity())
	notifier := services.NewNotifier(config.DB, sender)
	settings := services.NewSettingsService(config.DB, cache)
	chat := services.NewChatService(config.DB, assistant)

	reminders := services.NewReminderService(config.DB, notifier, loyalty)
	if err := reminders.StartScheduler(cfg.ReminderCron, cfg.VoucherExpiryCron); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}

	stopCleanup := make(chan struct{})
	chatLimiter := utils.NewRateLimiter(cfg.ChatRatePerMinute, 5)
	chatLimiter.StartCleanup(10*time.Minute, stopCleanup)

	r := routes.SetupRouter(routes.Deps{
		Config:      cfg,
		Enforcer:    enforcer,
		Cache:       cache,
		Events:      events,
		Loyalty:     loyalty,
		Notifier:    notifier,
		Settings:    settings,
		Chat:        chat,
		ChatLimiter: chatLimiter,
	})
	if gin.Mode() == gin.DebugMode {
		printRoutes(r)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()
	log.Infof("loyalty API listening on %s", server.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	close(stopCleanup)
	<-reminders.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
