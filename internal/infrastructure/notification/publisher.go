package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/config"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
)

// Publisher は予約通知の送信先
type Publisher interface {
	SendBookingConfirmation(ctx context.Context, b *booking.Booking) error
	SendBookingCancellation(ctx context.Context, b *booking.Booking) error
	Close() error
}

// New は設定された方式の Publisher を作成する
func New(cfg *config.NotificationConfig, logger *zap.Logger) (Publisher, error) {
	switch cfg.Driver {
	case config.NotificationDriverRabbitMQ:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.Queue, logger)
	case config.NotificationDriverKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	case config.NotificationDriverLog, "":
		return NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("未対応の通知方式です: %s", cfg.Driver)
	}
}

var (
	_ Publisher = (*AMQPPublisher)(nil)
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = (*LogNotifier)(nil)
)
