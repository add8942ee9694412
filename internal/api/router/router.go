package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/interpretly/booking-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "booking-api-service",
					"error":   err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "booking-api-service",
		})
	})

	bookingHandler := handler.NewBookingHandler(deps)

	v1 := r.Group("/api/v1")
	{
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("", bookingHandler.ListBookings)
			bookings.GET("/:job_id", bookingHandler.GetBooking)
			bookings.PUT("/:job_id", bookingHandler.UpdateBooking)
			bookings.POST("/:job_id/accept", bookingHandler.AcceptBooking)
			bookings.POST("/:job_id/cancel", bookingHandler.CancelBooking)
			bookings.POST("/:job_id/end", bookingHandler.EndBooking)
			bookings.POST("/:job_id/customer-no-show", bookingHandler.CustomerNoShow)
			bookings.POST("/:job_id/reopen", bookingHandler.ReopenBooking)
			bookings.POST("/:job_id/resend-notifications", bookingHandler.ResendNotifications)
			bookings.POST("/:job_id/resend-sms", bookingHandler.ResendSMSNotifications)
		}

		translators := v1.Group("/translators")
		{
			translators.GET("/:user_id/potential-bookings", bookingHandler.PotentialBookings)
		}
	}

	return r
}
