package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/api"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type PassengerRequest struct {
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone"`
	PassportNumber string `json:"passport_number"`
	DateOfBirth    string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

type CreateBookingRequest struct {
	FlightID       string           `json:"flight_id" validate:"required"`
	Class          string           `json:"class" validate:"required,oneof=economy business"`
	PassengerCount int              `json:"passenger_count" validate:"required,min=1,max=9"`
	SeatIDs        []string         `json:"seat_ids" validate:"omitempty,dive,required"`
	MealID         string           `json:"meal_id"`
	Passenger      PassengerRequest `json:"passenger"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type PassengerResponse struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	PassportNumber string `json:"passport_number,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
}

type BookingLineResponse struct {
	FlightID string  `json:"flight_id"`
	SeatID   *string `json:"seat_id,omitempty"`
	MealID   *string `json:"meal_id,omitempty"`
	Class    string  `json:"class"`
	Price    float64 `json:"price"`
	Released bool    `json:"released"`
}

type BookingResponse struct {
	ID                 string                `json:"id"`
	Reference          string                `json:"reference"`
	UserID             string                `json:"user_id"`
	Status             string                `json:"status"`
	Passenger          PassengerResponse     `json:"passenger"`
	TotalAmount        float64               `json:"total_amount"`
	Lines              []BookingLineResponse `json:"lines"`
	CancellationReason string                `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time            `json:"cancelled_at,omitempty"`
	ConfirmedAt        *time.Time            `json:"confirmed_at,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	p := PassengerResponse{
		FirstName: b.Passenger.FirstName, LastName: b.Passenger.LastName,
		Email: b.Passenger.Email, Phone: b.Passenger.Phone, PassportNumber: b.Passenger.PassportNumber,
	}
	if b.Passenger.DateOfBirth != nil {
		p.DateOfBirth = b.Passenger.DateOfBirth.Format(dateLayout)
	}
	lines := make([]BookingLineResponse, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = BookingLineResponse{
			FlightID: l.FlightID, SeatID: l.SeatID, MealID: l.MealID,
			Class: string(l.Class), Price: l.Price, Released: l.ReleasedAt != nil,
		}
	}
	return BookingResponse{
		ID: b.ID, Reference: b.Reference, UserID: b.UserID, Status: string(b.Status),
		Passenger: p, TotalAmount: b.TotalAmount, Lines: lines,
		CancellationReason: b.CancellationReason, CancelledAt: b.CancelledAt, ConfirmedAt: b.ConfirmedAt,
		CreatedAt: b.CreatedAt,
	}
}

// Create は予約を作成する
// @Summary 予約作成
// @Tags bookings
// @Accept json
// @Produce json
// @Success 201 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	class, err := flight.ParseClass(req.Class)
	if err != nil {
		return api.NewHTTPError(err)
	}
	passenger := booking.Passenger{
		FirstName: req.Passenger.FirstName, LastName: req.Passenger.LastName,
		Email: req.Passenger.Email, Phone: req.Passenger.Phone, PassportNumber: req.Passenger.PassportNumber,
	}
	if req.Passenger.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, req.Passenger.DateOfBirth)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "生年月日はYYYY-MM-DD形式で指定してください")
		}
		passenger.DateOfBirth = &dob
	}

	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		UserID:         middleware.UserID(c),
		FlightID:       req.FlightID,
		Class:          class,
		PassengerCount: req.PassengerCount,
		SeatIDs:        req.SeatIDs,
		MealID:         req.MealID,
		Passenger:      passenger,
	})
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) List(c echo.Context) error {
	limit, offset := 20, 0
	if v := c.QueryParam("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	bookings, err := h.service.ListUserBookings(c.Request().Context(), middleware.UserID(c), limit, offset)
	if err != nil {
		return api.NewHTTPError(err)
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) GetByID(c echo.Context) error {
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetByReference は予約番号で予約を取得する
func (h *BookingHandler) GetByReference(c echo.Context) error {
	b, err := h.service.GetBookingByReference(c.Request().Context(), c.Param("reference"), middleware.UserID(c))
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) Confirm(c echo.Context) error {
	b, err := h.service.ConfirmBooking(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Cancel は予約をキャンセルする。ボディは省略できる
func (h *BookingHandler) Cancel(c echo.Context) error {
	var req CancelBookingRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
		}
		if err := c.Validate(&req); err != nil {
			return err
		}
	}
	b, err := h.service.CancelBooking(c.Request().Context(), application.CancelBookingInput{
		BookingID: c.Param("id"), UserID: middleware.UserID(c), Reason: req.Reason,
	})
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}
