package routes

import (
	"time"

	"blakwhyte-backend/auth"
	"blakwhyte-backend/config"
	"blakwhyte-backend/controllers"
	"blakwhyte-backend/live"
	"blakwhyte-backend/services"
	"blakwhyte-backend/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps is everything the router hands to its controllers.
type Deps struct {
	Config    *config.Config
	Store     *store.Store
	Join      *live.BookingJoin
	Issuer    *auth.Issuer
	Sessions  *auth.Sessions
	Bookings  *services.BookingService
	Analyzer  *services.TrendAnalyzer
	Reminders *services.ReminderService
	Log       *zap.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	loc := cfg.Studio.Location()
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger(log))

	health := &controllers.HealthController{Store: d.Store}
	authController := &controllers.AuthController{
		Store:        d.Store,
		Issuer:       d.Issuer,
		Sessions:     d.Sessions,
		TokenTTL:     cfg.JWT.Expiry,
		SecureCookie: cfg.IsProduction(),
		Reserved:     cfg.IsAdminEmail,
		Log:          log,
	}
	profile := &controllers.ProfileController{Store: d.Store}
	catalog := &controllers.CatalogController{Store: d.Store}
	bookings := &controllers.BookingController{
		Bookings: d.Bookings,
		Join:     d.Join,
		Currency: cfg.Studio.Currency,
		Location: loc,
		Log:      log,
	}
	serviceController := &controllers.ServiceController{Store: d.Store}
	clients := &controllers.ClientController{Store: d.Store, Join: d.Join}
	invoices := &controllers.InvoiceController{Join: d.Join, Studio: cfg.Studio}
	dashboard := &controllers.DashboardController{Join: d.Join, Currency: cfg.Studio.Currency, Location: loc}
	reports := &controllers.ReportController{Join: d.Join, Location: loc}
	reminders := &controllers.ReminderController{Reminders: d.Reminders, Store: d.Store, Log: log}
	trends := &controllers.TrendsController{Analyzer: d.Analyzer}

	r.GET("/healthz", health.Health)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authController.Register)
		authGroup.POST("/login", authController.Login)
		authGroup.GET("/me", authController.Me)
		authGroup.POST("/logout", authController.Logout)

		signedIn := authGroup.Group("/profile", auth.RequireSignedIn(d.Sessions))
		{
			signedIn.GET("", profile.GetProfile)
			signedIn.PUT("", profile.UpdateProfile)
		}
	}

	api := r.Group("/api")
	{
		api.GET("/services", catalog.GetServices)
		api.GET("/services/:id", catalog.GetService)
		api.GET("/products", catalog.GetProducts)
		api.GET("/gallery", catalog.GetGallery)
		api.GET("/slots", catalog.GetSlots)
		api.POST("/bookings", bookings.Create)
	}

	admin := api.Group("/admin", auth.RequireAdmin(d.Sessions))
	{
		admin.GET("/bookings", bookings.List)
		admin.GET("/bookings/stream", bookings.Stream)
		admin.GET("/bookings/export", bookings.Export)
		admin.GET("/bookings/statuses", bookings.Statuses)
		admin.POST("/bookings/:id/:action", bookings.Transition)
		admin.GET("/bookings/:id/invoice", invoices.GetInvoice)

		admin.GET("/clients", clients.GetClients)
		admin.GET("/clients/:id", clients.GetClient)

		admin.GET("/dashboard", dashboard.GetDashboardOverview)
		admin.GET("/reports", reports.GetReportAnalytics)
		admin.POST("/trends/analyze", trends.Analyze)

		admin.POST("/reminders/run", reminders.RunReminders)
		admin.GET("/notifications", reminders.GetNotifications)

		serviceRoutes := admin.Group("/services")
		{
			serviceRoutes.GET("", serviceController.GetServices)
			serviceRoutes.POST("", serviceController.CreateService)
			serviceRoutes.PUT("/:id", serviceController.UpdateService)
			serviceRoutes.DELETE("/:id", serviceController.DeleteService)
		}
	}

	return r
}
