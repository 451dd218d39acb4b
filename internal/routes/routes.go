package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calendar-booking-server/internal/config"
	"calendar-booking-server/internal/handlers"
	"calendar-booking-server/internal/middleware"
	"calendar-booking-server/internal/services"
	"calendar-booking-server/internal/store"
	"calendar-booking-server/internal/utils"
)

// Deps are the long-lived objects the routes hand to their handlers.
type Deps struct {
	Config  *config.Config
	Service *services.BookingService
	Store   store.Repository
	Logger  *zap.Logger
	Checks  map[string]handlers.HealthCheck
	// Limiter guards the booking endpoint; built from Config when nil.
	Limiter *middleware.RateLimiter
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Deps) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, logger)
	calendarHandler := handlers.NewCalendarHandler(deps.Service, logger)
	appointmentHandler := handlers.NewAppointmentHandler(deps.Service, logger, cfg.Admin.Email)
	statusHandler := handlers.NewStatusHandler(deps.Service, logger)
	outboxHandler := handlers.NewOutboxHandler(deps.Store, cfg.Notify.MaxAttempts, logger)
	healthHandler := handlers.NewHealthHandler(deps.Checks)

	bookingLimiter := deps.Limiter
	if bookingLimiter == nil {
		bookingLimiter = middleware.NewRateLimiter(cfg.RateLimit.BookingsPerMinute, cfg.RateLimit.Burst)
	}

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		public.POST("/auth/login", authHandler.Login)

		calendarRoutes := public.Group("/calendar")
		{
			calendarRoutes.GET("/days", calendarHandler.GetAvailableDays)
			calendarRoutes.GET("/slots", calendarHandler.GetSlots)
			calendarRoutes.GET("/meeting-types", calendarHandler.GetMeetingTypes)
			calendarRoutes.POST("/appointments", bookingLimiter.Middleware(logger), appointmentHandler.CreateAppointment)
			// The appointment id is an unguessable UUID handed back to the booker.
			calendarRoutes.GET("/appointments/:id/ics", appointmentHandler.GetAppointmentICS)
		}

		public.GET("/status", statusHandler.GetStatus)
	}

	// Admin routes
	admin := router.Group("/api/v1")
	admin.Use(middleware.AuthMiddleware(cfg.JWTSecret), middleware.RoleAuthMiddleware(utils.RoleAdmin))
	{
		admin.PUT("/status", statusHandler.UpdateStatus)
		admin.GET("/calendar/appointments", appointmentHandler.GetAppointments)
		admin.GET("/calendar/appointments/:id", appointmentHandler.GetAppointmentByID)
		admin.GET("/outbox/pending", outboxHandler.GetPending)
	}

	router.GET("/health", healthHandler.Health)
}
