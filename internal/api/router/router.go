package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/api/handler"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/config"
)

// Handlers はルーティング対象のハンドラー一式
type Handlers struct {
	Health  *handler.HealthHandler
	Flight  *handler.FlightHandler
	Seat    *handler.SeatHandler
	Booking *handler.BookingHandler
}

// Register はAPIのルートを登録する
// 予約のルートはユーザー識別が必須
func Register(e *echo.Echo, h Handlers, cfg *config.Config) {
	e.GET("/health", h.Health.Check)
	e.GET("/health/ready", h.Health.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.Metrics))

	v1 := e.Group("/api/v1")
	v1.GET("/cities", h.Flight.ListCities)
	v1.GET("/meals", h.Flight.ListMeals)

	v1.GET("/flights/search", h.Flight.Search)
	v1.GET("/flights/:id", h.Flight.GetByID)
	v1.POST("/flights/:id/seats/generate", h.Seat.Generate)
	v1.GET("/flights/:id/seats", h.Seat.ListByFlight)
	v1.GET("/flights/:id/seats/available/count", h.Seat.CountAvailable)
	v1.GET("/seats/:id", h.Seat.GetByID)

	bookings := v1.Group("/bookings", middleware.UserIdentity(cfg.Auth.JWTSecret))
	bookings.POST("", h.Booking.Create)
	bookings.GET("", h.Booking.List)
	bookings.GET("/reference/:reference", h.Booking.GetByReference)
	bookings.GET("/:id", h.Booking.GetByID)
	bookings.POST("/:id/confirm", h.Booking.Confirm)
	bookings.POST("/:id/cancel", h.Booking.Cancel)
}
