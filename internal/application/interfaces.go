package application

import (
	"context"
	"time"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/provider"
)

// SeatCache は空席数キャッシュのインターフェース
type SeatCache interface {
	GetAvailableCount(ctx context.Context, flightID string, class flight.Class) (int, error)
	SetAvailableCount(ctx context.Context, flightID string, class flight.Class, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, flightID string) error
}

// Notifier は予約通知の送信インターフェース
// 送信失敗は予約処理の結果に影響させない
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, b *booking.Booking) error
	SendBookingCancellation(ctx context.Context, b *booking.Booking) error
}

// FlightProvider は外部のフライト情報の取得元
type FlightProvider interface {
	SearchOffers(ctx context.Context, criteria provider.Criteria) ([]provider.Offer, error)
}
