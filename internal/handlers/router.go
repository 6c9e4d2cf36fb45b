package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/chachabrian/hall-booking/internal/booking"
	"github.com/chachabrian/hall-booking/internal/middleware"
	"github.com/chachabrian/hall-booking/internal/services"
)

// RouterDeps is everything the HTTP surface needs.
type RouterDeps struct {
	DB        *gorm.DB
	Service   *booking.Service
	Hub       *services.Hub
	Reports   services.ReportStorage
	ReportDir string
	JWTSecret string
	Limiter   *middleware.RateLimiter
	Logger    zerolog.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	if d.ReportDir != "" {
		r.Static("/reports", d.ReportDir)
	}

	r.GET("/healthz", Healthz())
	r.GET("/readyz", Readyz(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		hall := api.Group("/hall-booking")
		if d.Limiter != nil {
			hall.Use(d.Limiter.Middleware())
		}
		{
			hall.POST("/check-hourly-availability", CheckHourlyAvailability(d.Service))
			hall.POST("/book-hourly", BookHourly(d.Service))
			hall.POST("/book", BookFixedSlot(d.Service))
			hall.POST("/payment/create", CreatePaymentOrder(d.Service))
			hall.POST("/payment/verify", VerifyPayment(d.Service))
			if d.Hub != nil {
				hall.GET("/ws", AvailabilityFeed(d.Hub))
			}
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth(d.JWTSecret))
		{
			admin.GET("/hall-bookings", ListHallBookings(d.Service))
			admin.PATCH("/hall-booking-status/:id", UpdateHallBookingStatus(d.Service))
			admin.PATCH("/hall-booking-remaining-payment/:id", SettleRemainingPayment(d.Service))
			admin.POST("/settings/refresh", RefreshSettings(d.Service))
			if d.Reports != nil {
				admin.GET("/hall-bookings/export", ExportHallBookings(d.Service, d.Reports))
			}
		}
	}

	return r
}
