package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
)

// KafkaPublisher は予約番号をキーに Kafka トピックへ予約通知を送る
// 同じ予約の通知は同じパーティションに入るため順序が保たれる
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaConfig はプロデューサー設定を返す
func NewKafkaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

// NewKafkaPublisher はブローカーに接続したプロデューサーを作成する
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, fmt.Errorf("Kafkaプロデューサー作成に失敗: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

// NewKafkaPublisherWithProducer は既存のプロデューサーを使う
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *KafkaPublisher) SendBookingConfirmation(ctx context.Context, b *booking.Booking) error {
	return p.publish(ctx, NewBookingEvent(KindBookingConfirmation, b))
}

func (p *KafkaPublisher) SendBookingCancellation(ctx context.Context, b *booking.Booking) error {
	return p.publish(ctx, NewBookingEvent(KindBookingCancellation, b))
}

func (p *KafkaPublisher) publish(ctx context.Context, event BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := event.Encode()
	if err != nil {
		return fmt.Errorf("通知のエンコードに失敗: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Reference),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("message_id"), Value: []byte(event.MessageID)},
			{Key: []byte("kind"), Value: []byte(event.Kind)},
		},
		Timestamp: event.OccurredAt,
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("通知の送信に失敗: %w", err)
	}
	p.logger.Debug("予約通知を送信しました",
		zap.String("kind", string(event.Kind)),
		zap.String("reference", event.Reference),
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close はプロデューサーを閉じる
func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("Kafkaプロデューサーのクローズに失敗: %w", err)
	}
	return nil
}
