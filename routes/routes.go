package routes

import (
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"loyalty-backend/config"
	"loyalty-backend/controllers"
	"loyalty-backend/services"
	"loyalty-backend/utils"
)

// Deps carries the wired services the router hands to controllers.
type Deps struct {
	Config      *config.Config
	Enforcer    *casbin.Enforcer
	Cache       services.Cache
	Events      services.Publisher
	Loyalty     *services.LoyaltyService
	Notifier    *services.Notifier
	Settings    *services.SettingsService
	Chat        *services.ChatService
	ChatLimiter *utils.RateLimiter
	Accounts    utils.AccountLookup
}

func SetupRouter(d Deps) *gin.Engine {
	if err := utils.RegisterValidators(); err != nil {
		log.WithError(err).Fatal("failed to register validators")
	}

	if d.ChatLimiter == nil {
		d.ChatLimiter = utils.NewRateLimiter(d.Config.ChatRatePerMinute, 5)
	}

	if d.Accounts == nil {
		d.Accounts = controllers.LookupAccount
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger())
	r.Use(config.MetricsMiddleware())

	pwa := &controllers.PWAController{Settings: d.Settings}
	r.GET("/healthz", controllers.HealthCheck)
	r.GET("/manifest.webmanifest", pwa.GetManifest)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := utils.AuthMiddleware(d.Config.JWTSecret)

	authController := &controllers.AuthController{
		Secret:   d.Config.JWTSecret,
		TokenTTL: d.Config.TokenTTL(),
		Loyalty:  d.Loyalty,
		Settings: d.Settings,
	}
	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.GET("/me", authMiddleware, authController.Me)
	}

	productController := &controllers.ProductController{Cache: d.Cache}
	appointmentController := &controllers.AppointmentController{
		Loyalty:  d.Loyalty,
		Notifier: d.Notifier,
		Settings: d.Settings,
		Events:   d.Events,
	}
	workOrderController := &controllers.WorkOrderController{Notifier: d.Notifier, Events: d.Events}
	loyaltyController := &controllers.LoyaltyController{Loyalty: d.Loyalty}
	transactionController := &controllers.TransactionController{Loyalty: d.Loyalty}
	settingController := &controllers.SettingController{Settings: d.Settings}
	chatController := controllers.NewChatController(d.Chat, d.ChatLimiter, d.Config.AllowedOrigins())

	api := r.Group("/api")
	api.Use(authMiddleware)
	{
		api.GET("/dashboard", controllers.GetDashboardOverview)

		products := api.Group("/products")
		{
			products.GET("", productController.GetProducts)
			products.GET("/categories", productController.GetCategories)
			products.GET("/:id", productController.GetProduct)
		}

		wishlist := api.Group("/wishlist")
		{
			wishlist.GET("", controllers.GetWishlist)
			wishlist.POST("", controllers.AddToWishlist)
			wishlist.DELETE("/:productId", controllers.RemoveFromWishlist)
		}

		stores := api.Group("/stores")
		{
			stores.GET("", controllers.GetStores)
			stores.GET("/:id", controllers.GetStore)
			stores.GET("/:id/slots", controllers.GetStoreSlots)
		}

		appointments := api.Group("/appointments")
		{
			appointments.POST("", appointmentController.CreateAppointment)
			appointments.GET("", appointmentController.GetAppointments)
			appointments.GET("/:id", appointmentController.GetAppointment)
			appointments.PUT("/:id/status", appointmentController.UpdateAppointmentStatus)
		}

		workOrders := api.Group("/work-orders")
		{
			workOrders.POST("", workOrderController.CreateWorkOrder)
			workOrders.GET("", workOrderController.GetWorkOrders)
			workOrders.GET("/:id", workOrderController.GetWorkOrder)
			workOrders.PUT("/:id/status", workOrderController.UpdateWorkOrderStatus)
		}

		loyalty := api.Group("/loyalty")
		{
			loyalty.GET("", loyaltyController.GetSummary)
			loyalty.GET("/tiers", loyaltyController.GetTiers)
			loyalty.GET("/rewards", loyaltyController.GetRewards)
			loyalty.POST("/redeem", loyaltyController.Redeem)
			loyalty.GET("/history", loyaltyController.GetHistory)
			loyalty.GET("/vouchers", loyaltyController.GetVouchers)
		}

		transactions := api.Group("/transactions")
		{
			transactions.GET("", transactionController.GetTransactions)
			transactions.GET("/summary", transactionController.GetTransactionSummary)
			transactions.GET("/:id", transactionController.GetTransaction)
		}

		profile := api.Group("/profile")
		{
			profile.GET("", controllers.GetProfile)
			profile.PUT("", controllers.UpdateProfile)
			profile.PUT("/password", controllers.ChangePassword)
		}

		chat := api.Group("/chat")
		{
			chat.POST("/sessions", chatController.CreateSession)
			chat.GET("/sessions", chatController.GetSessions)
			chat.GET("/sessions/:id/messages", chatController.GetMessages)
			chat.PUT("/sessions/:id/close", chatController.CloseSession)
			chat.POST("/messages", d.ChatLimiter.Middleware(), chatController.SendMessage)
			chat.GET("/ws", chatController.ServeWS)
		}

		settings := api.Group("/settings")
		{
			settings.GET("", settingController.GetPublicSettings)
			settings.GET("/:key", settingController.GetSetting)
		}

		admin := api.Group("/admin")
		admin.Use(utils.RefreshRole(d.Accounts), utils.Authorize(d.Enforcer))
		{
			admin.POST("/products", productController.CreateProduct)
			admin.PUT("/products/:id", productController.UpdateProduct)
			admin.DELETE("/products/:id", productController.DeleteProduct)

			admin.POST("/transactions", transactionController.CreateTransaction)
			admin.GET("/appointments", appointmentController.GetStoreAppointments)
			admin.GET("/work-orders", workOrderController.GetAllWorkOrders)

			customerController := &controllers.CustomerController{Loyalty: d.Loyalty}
			admin.GET("/customers", customerController.GetCustomers)
			admin.GET("/customers/:id", customerController.GetCustomer)
			admin.PUT("/customers/:id", customerController.UpdateCustomer)
			admin.POST("/customers/:id/points", customerController.GrantPoints)
			admin.DELETE("/customers/:id", customerController.DeleteCustomer)

			admin.PUT("/settings/:key", settingController.UpdateSetting)

			admin.GET("/templates", controllers.GetTemplates)
			admin.POST("/templates", controllers.CreateTemplate)
			admin.GET("/templates/:id", controllers.GetTemplate)
			admin.PUT("/templates/:id", controllers.UpdateTemplate)
			admin.DELETE("/templates/:id", controllers.DeleteTemplate)

			reportController := &controllers.ReportController{}
			admin.GET("/reports", reportController.GetReportAnalytics)
		}
	}

	return r
}
