package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/api"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/city"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
)

const dateLayout = "2006-01-02"

type FlightHandler struct {
	service FlightServiceInterface
}

func NewFlightHandler(s FlightServiceInterface) *FlightHandler {
	return &FlightHandler{service: s}
}

type SearchFlightsRequest struct {
	Origin      string `query:"origin" validate:"required,iata"`
	Destination string `query:"destination" validate:"required,iata"`
	Date        string `query:"date" validate:"required,datetime=2006-01-02"`
	Adults      int    `query:"adults" validate:"omitempty,min=1,max=9"`
}

type FlightResponse struct {
	ID              string    `json:"id"`
	FlightNumber    string    `json:"flight_number"`
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	DepartureAt     time.Time `json:"departure_at"`
	ArrivalAt       time.Time `json:"arrival_at"`
	DurationMinutes int       `json:"duration_minutes"`
	EconomyPrice    float64   `json:"economy_price"`
	BusinessPrice   float64   `json:"business_price"`
	EconomySeats    int       `json:"economy_seats"`
	BusinessSeats   int       `json:"business_seats"`
	NumberOfStops   int       `json:"number_of_stops"`
}

func toFlightResponse(f *flight.Flight) FlightResponse {
	return FlightResponse{
		ID:              f.ID,
		FlightNumber:    f.FlightNumber,
		Origin:          f.OriginCode,
		Destination:     f.DestinationCode,
		DepartureAt:     f.DepartureAt,
		ArrivalAt:       f.ArrivalAt,
		DurationMinutes: int(f.ArrivalAt.Sub(f.DepartureAt).Minutes()),
		EconomyPrice:    f.EconomyPrice,
		BusinessPrice:   f.BusinessPrice,
		EconomySeats:    f.EconomySeats,
		BusinessSeats:   f.BusinessSeats,
		NumberOfStops:   f.NumberOfStops,
	}
}

type CityResponse struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	TimeZone    string  `json:"time_zone"`
}

type MealResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
}

// Search は路線と出発日でフライトを検索する
// GET /api/v1/flights/search?origin=JFK&destination=LHR&date=2026-12-20
func (h *FlightHandler) Search(c echo.Context) error {
	var req SearchFlightsRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "日付はYYYY-MM-DD形式で指定してください")
	}
	if req.Adults == 0 {
		req.Adults = 1
	}

	flights, err := h.service.Search(c.Request().Context(), application.SearchInput{
		Origin: req.Origin, Destination: req.Destination, Date: date, Adults: req.Adults,
	})
	if err != nil {
		return api.NewHTTPError(err)
	}
	resp := make([]FlightResponse, len(flights))
	for i, f := range flights {
		resp[i] = toFlightResponse(f)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) GetByID(c echo.Context) error {
	f, err := h.service.GetFlight(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toFlightResponse(f))
}

func (h *FlightHandler) ListCities(c echo.Context) error {
	cities, err := h.service.ListCities(c.Request().Context())
	if err != nil {
		return api.NewHTTPError(err)
	}
	resp := make([]CityResponse, len(cities))
	for i, ct := range cities {
		resp[i] = toCityResponse(ct)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) ListMeals(c echo.Context) error {
	meals, err := h.service.ListMeals(c.Request().Context())
	if err != nil {
		return api.NewHTTPError(err)
	}
	resp := make([]MealResponse, len(meals))
	for i, m := range meals {
		resp[i] = MealResponse{ID: m.ID, Name: m.Name, Description: m.Description, Type: string(m.Type), Price: m.Price}
	}
	return c.JSON(http.StatusOK, resp)
}

func toCityResponse(ct *city.City) CityResponse {
	return CityResponse{
		Code: ct.Code, Name: ct.Name, CountryCode: ct.CountryCode,
		Latitude: ct.Latitude, Longitude: ct.Longitude, TimeZone: ct.TimeZone,
	}
}
