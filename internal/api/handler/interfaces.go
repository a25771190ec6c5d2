package handler

import (
	"context"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/city"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/meal"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

// FlightServiceInterface はフライトサービスのインターフェース
type FlightServiceInterface interface {
	Search(ctx context.Context, input application.SearchInput) ([]*flight.Flight, error)
	GetFlight(ctx context.Context, id string) (*flight.Flight, error)
	ListCities(ctx context.Context) ([]*city.City, error)
	ListMeals(ctx context.Context) ([]*meal.Meal, error)
}

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	GenerateSeatMap(ctx context.Context, flightID string) (int, error)
	GetSeat(ctx context.Context, id string) (*seat.Seat, error)
	ListSeats(ctx context.Context, flightID string, filter seat.Filter) ([]*seat.Seat, error)
	CountAvailable(ctx context.Context, flightID string, class flight.Class) (int, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error)
	GetBookingByReference(ctx context.Context, reference, userID string) (*booking.Booking, error)
	ListUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error)
	CancelBooking(ctx context.Context, input application.CancelBookingInput) (*booking.Booking, error)
}

var (
	_ FlightServiceInterface  = (*application.FlightService)(nil)
	_ SeatServiceInterface    = (*application.SeatService)(nil)
	_ BookingServiceInterface = (*application.BookingService)(nil)
)
