package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
)

// Kind は通知の種類
type Kind string

const (
	KindBookingConfirmation Kind = "booking.confirmation"
	KindBookingCancellation Kind = "booking.cancellation"
)

// BookingEvent はブローカーに送る予約通知メッセージ
type BookingEvent struct {
	MessageID          string    `json:"message_id"`
	Kind               Kind      `json:"kind"`
	BookingID          string    `json:"booking_id"`
	Reference          string    `json:"reference"`
	UserID             string    `json:"user_id"`
	Status             string    `json:"status"`
	PassengerName      string    `json:"passenger_name"`
	Email              string    `json:"email"`
	TotalAmount        float64   `json:"total_amount"`
	FlightIDs          []string  `json:"flight_ids"`
	SeatIDs            []string  `json:"seat_ids"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// NewBookingEvent は予約から通知メッセージを作成する
func NewBookingEvent(kind Kind, b *booking.Booking) BookingEvent {
	return BookingEvent{
		MessageID:          uuid.New().String(),
		Kind:               kind,
		BookingID:          b.ID,
		Reference:          b.Reference,
		UserID:             b.UserID,
		Status:             string(b.Status),
		PassengerName:      b.Passenger.FullName(),
		Email:              b.Passenger.Email,
		TotalAmount:        b.TotalAmount,
		FlightIDs:          b.FlightIDs(),
		SeatIDs:            b.SeatIDs(),
		CancellationReason: b.CancellationReason,
		OccurredAt:         time.Now().UTC(),
	}
}

// Encode はメッセージをJSONにする
func (e BookingEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}
