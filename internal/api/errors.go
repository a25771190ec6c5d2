package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/city"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/meal"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

// Kind はクライアントに返すエラーの分類
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal"
)

var validationErrors = []error{
	flight.ErrRouteRequired,
	flight.ErrSameOriginDestination,
	flight.ErrInvalidClass,
	flight.ErrInvalidSchedule,
	flight.ErrInvalidPrice,
	flight.ErrFlightNumberRequired,
	seat.ErrSeatFlightMismatch,
	seat.ErrSeatNotAvailable,
	seat.ErrDuplicateSeatIDs,
	seat.ErrSeatIDsRequired,
	booking.ErrUserIDRequired,
	booking.ErrLinesRequired,
	booking.ErrInvalidAmount,
	booking.ErrPassengerNameRequired,
	booking.ErrPassengerEmailRequired,
	booking.ErrInvalidPassengerCount,
	booking.ErrSeatCountMismatch,
	meal.ErrMealNotAvailable,
}

// 競合エラーは座席表や予約を取り直せば再試行できる
var conflictErrors = []error{
	seat.ErrSeatConflict,
	booking.ErrSeatsBeingProcessed,
	booking.ErrNotEnoughSeats,
	booking.ErrBookingNotPending,
	booking.ErrBookingNotConfirmed,
	booking.ErrBookingAlreadyCancelled,
	booking.ErrCancellationWindowClosed,
}

var notFoundErrors = []error{
	flight.ErrFlightNotFound,
	seat.ErrSeatNotFound,
	booking.ErrBookingNotFound,
	meal.ErrMealNotFound,
	city.ErrCityNotFound,
}

// Classify はドメインエラーを分類する
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case isAny(err, notFoundErrors):
		return KindNotFound
	case isAny(err, conflictErrors):
		return KindConflict
	case isAny(err, validationErrors):
		return KindValidation
	}
	return KindInternal
}

// StatusFromError はエラーに対応するHTTPステータスを返す
func StatusFromError(err error) int {
	switch Classify(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case "":
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// NewHTTPError はドメインエラーを echo.HTTPError に変換する
// 5xx の場合は内部のエラー内容をクライアントに返さない
func NewHTTPError(err error) *echo.HTTPError {
	code := StatusFromError(err)
	message := err.Error()
	if code >= http.StatusInternalServerError {
		message = internalErrorMessage
	}
	return echo.NewHTTPError(code, message).SetInternal(err)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
