package kafka

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"library-desk/internal/domain/issuance"
	"library-desk/internal/infrastructure/config"
	otelinfra "library-desk/internal/infrastructure/observability/otel"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// messageWriter kafka.Writerのうち使用する部分
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 返却イベントをKafkaに送信する
type Publisher struct {
	writer messageWriter
	topic  string
	logger *otelinfra.Logger
	tracer trace.Tracer
}

// NewPublisher 新しいPublisherを作成
func NewPublisher(cfg *config.KafkaConfig, logger *otelinfra.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
	}
	return newPublisher(writer, cfg.ReturnsTopic, logger)
}

func newPublisher(writer messageWriter, topic string, logger *otelinfra.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		topic:  topic,
		logger: logger,
		tracer: otel.Tracer("kafka-publisher"),
	}
}

// PublishReturned 返却イベントを送信する。キーは会員IDで、同じ会員のイベントは同じパーティションに入る
func (p *Publisher) PublishReturned(ctx context.Context, event issuance.ReturnedEvent) error {
	ctx, span := p.tracer.Start(ctx, "Kafka.PublishReturned")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.topic),
		attribute.String("event_id", event.EventID),
	)

	value, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to marshal returned event: %w", err)
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(fmt.Sprintf("%d", event.MemberID)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("book.returned")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		p.logger.Error(ctx, "Failed to send Kafka message", err, map[string]interface{}{
			"topic":    p.topic,
			"event_id": event.EventID,
		})
		return fmt.Errorf("failed to publish returned event: %w", err)
	}

	p.logger.Info(ctx, "Kafka message sent", map[string]interface{}{
		"topic":          p.topic,
		"event_id":       event.EventID,
		"transaction_id": event.TransactionID,
	})
	span.SetStatus(otelcodes.Ok, "event published")
	return nil
}

// Close ライターを閉じる
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

// NoopPublisher Kafkaが無効なときに使う何もしないPublisher
type NoopPublisher struct{}

// PublishReturned 何もしない
func (NoopPublisher) PublishReturned(context.Context, issuance.ReturnedEvent) error {
	return nil
}

// Close 何もしない
func (NoopPublisher) Close() error {
	return nil
}
