// Пакет events — публикация событий жизненного цикла файлов в Kafka.
// Семантика at-least-once: событие публикуется после фиксации факта
// в Metadata Store; сбой публикации логируется, но не откатывает операцию.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
)

// Метрики публикации событий.
var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fm_events_published_total",
			Help: "Количество опубликованных событий файлов",
		},
		[]string{"type"},
	)
	eventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fm_events_publish_errors_total",
			Help: "Количество ошибок публикации событий файлов",
		},
		[]string{"type"},
	)
)

// Publisher — интерфейс публикации событий файлов.
type Publisher interface {
	// Publish отправляет событие. Вызов не блокирует вызывающую операцию
	// дольше, чем требуется на постановку сообщения в очередь writer.
	Publish(ctx context.Context, event *model.FileEvent)
}

// KafkaPublisher — Publisher поверх kafka-go Writer.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher создаёт publisher с асинхронным writer.
// Ключ партиционирования — file_id: события одного файла попадают
// в одну партицию и сохраняют порядок.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				for _, m := range messages {
					logger.Error("Ошибка публикации события",
						slog.String("key", string(m.Key)),
						slog.String("error", err.Error()))
				}
			}
		},
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish сериализует событие и отправляет его в топик.
// Заголовки event_type и timestamp позволяют консьюмерам фильтровать
// без десериализации payload.
func (p *KafkaPublisher) Publish(ctx context.Context, event *model.FileEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		eventsFailed.WithLabelValues(event.Type).Inc()
		p.logger.Error("Ошибка сериализации события",
			slog.String("type", event.Type),
			slog.String("file_id", event.FileID),
			slog.String("error", err.Error()))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.FileID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		eventsFailed.WithLabelValues(event.Type).Inc()
		p.logger.Error("Ошибка отправки события в Kafka",
			slog.String("type", event.Type),
			slog.String("file_id", event.FileID),
			slog.String("error", err.Error()))
		return
	}
	eventsPublished.WithLabelValues(event.Type).Inc()
}

// Close останавливает writer, дожидаясь отправки буферизованных сообщений.
func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("закрытие Kafka writer: %w", err)
	}
	return nil
}
