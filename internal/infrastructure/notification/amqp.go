package notification

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
)

// amqpChannel は AMQPPublisher が使うチャネル操作
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher は RabbitMQ の永続キューに予約通知を送る
type AMQPPublisher struct {
	conn   *amqp.Connection
	mu     sync.Mutex
	ch     amqpChannel
	queue  string
	logger *zap.Logger
}

// NewAMQPPublisher はブローカーに接続し、キューを宣言する
func NewAMQPPublisher(url, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("RabbitMQチャネル作成に失敗: %w", err)
	}
	// 再起動後もメッセージが残るよう durable で宣言する
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("キュー宣言に失敗: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, queue: queue, logger: logger}, nil
}

func (p *AMQPPublisher) SendBookingConfirmation(ctx context.Context, b *booking.Booking) error {
	return p.publish(ctx, NewBookingEvent(KindBookingConfirmation, b))
}

func (p *AMQPPublisher) SendBookingCancellation(ctx context.Context, b *booking.Booking) error {
	return p.publish(ctx, NewBookingEvent(KindBookingCancellation, b))
}

func (p *AMQPPublisher) publish(ctx context.Context, event BookingEvent) error {
	body, err := event.Encode()
	if err != nil {
		return fmt.Errorf("通知のエンコードに失敗: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.MessageID,
		Type:         string(event.Kind),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}

	// チャネルはゴルーチン間で共有できない
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("通知の送信に失敗: %w", err)
	}
	p.logger.Debug("予約通知を送信しました",
		zap.String("kind", string(event.Kind)),
		zap.String("reference", event.Reference),
		zap.String("queue", p.queue),
	)
	return nil
}

// Close はチャネルと接続を閉じる
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
