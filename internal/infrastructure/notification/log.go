package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
)

// LogNotifier は通知をログに出力するだけの実装（開発用）
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendBookingConfirmation(_ context.Context, b *booking.Booking) error {
	n.log(NewBookingEvent(KindBookingConfirmation, b))
	return nil
}

func (n *LogNotifier) SendBookingCancellation(_ context.Context, b *booking.Booking) error {
	n.log(NewBookingEvent(KindBookingCancellation, b))
	return nil
}

func (n *LogNotifier) log(event BookingEvent) {
	n.logger.Info("予約通知",
		zap.String("kind", string(event.Kind)),
		zap.String("reference", event.Reference),
		zap.String("email", event.Email),
		zap.Float64("total_amount", event.TotalAmount),
	)
}

func (n *LogNotifier) Close() error { return nil }
