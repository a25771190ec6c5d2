package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/api"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

type SeatHandler struct {
	service SeatServiceInterface
}

func NewSeatHandler(s SeatServiceInterface) *SeatHandler {
	return &SeatHandler{service: s}
}

type SeatResponse struct {
	ID          string `json:"id"`
	FlightID    string `json:"flight_id"`
	SeatNumber  string `json:"seat_number"`
	Row         int    `json:"row"`
	Letter      string `json:"letter"`
	Class       string `json:"class"`
	IsAvailable bool   `json:"is_available"`
	IsWindow    bool   `json:"is_window"`
	IsAisle     bool   `json:"is_aisle"`
}

func toSeatResponse(s *seat.Seat) SeatResponse {
	return SeatResponse{
		ID: s.ID, FlightID: s.FlightID, SeatNumber: s.SeatNumber(),
		Row: s.Row, Letter: s.Letter, Class: string(s.Class), IsAvailable: s.IsAvailable,
		IsWindow: s.IsWindow(), IsAisle: s.IsAisle(),
	}
}

// ListByFlight はフライトの座席表を返す
// GET /api/v1/flights/:id/seats?class=economy&available=true
func (h *SeatHandler) ListByFlight(c echo.Context) error {
	filter := seat.Filter{AvailableOnly: c.QueryParam("available") == "true"}
	if raw := c.QueryParam("class"); raw != "" {
		class, err := flight.ParseClass(raw)
		if err != nil {
			return api.NewHTTPError(err)
		}
		filter.Class = &class
	}

	seats, err := h.service.ListSeats(c.Request().Context(), c.Param("id"), filter)
	if err != nil {
		return api.NewHTTPError(err)
	}
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = toSeatResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// Generate は座席表を生成する。生成済みの座席はそのまま残る
func (h *SeatHandler) Generate(c echo.Context) error {
	flightID := c.Param("id")
	created, err := h.service.GenerateSeatMap(c.Request().Context(), flightID)
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"flight_id": flightID, "created": created})
}

func (h *SeatHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetSeat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toSeatResponse(s))
}

type AvailabilityResponse struct {
	FlightID  string `json:"flight_id"`
	Class     string `json:"class"`
	Available int    `json:"available"`
	Requested int    `json:"requested,omitempty"`
	Enough    *bool  `json:"enough,omitempty"`
}

// CountAvailable はクラスごとの空席数を返す
// passengers を指定すると必要数を満たすかも返す
func (h *SeatHandler) CountAvailable(c echo.Context) error {
	class, err := flight.ParseClass(c.QueryParam("class"))
	if err != nil {
		return api.NewHTTPError(err)
	}
	flightID := c.Param("id")
	count, err := h.service.CountAvailable(c.Request().Context(), flightID, class)
	if err != nil {
		return api.NewHTTPError(err)
	}

	resp := AvailabilityResponse{FlightID: flightID, Class: string(class), Available: count}
	if raw := c.QueryParam("passengers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "passengers は1以上の整数で指定してください")
		}
		enough := count >= n
		resp.Requested = n
		resp.Enough = &enough
	}
	return c.JSON(http.StatusOK, resp)
}
