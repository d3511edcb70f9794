// Package kafka предоставляет обёртку над kafka-go для публикации доменных событий.
// Producer поддерживает headers с идентификаторами трассировки.
package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/gem-checkout/pkg/logger"
)

// Топики доменных событий.
const (
	// TopicDepositSessions - события жизненного цикла депозитных сессий
	// (created / deposit_paid / fully_paid).
	TopicDepositSessions = "commerce.deposit-sessions"

	// TopicDLQ - Dead Letter Queue для событий, которые не удалось доставить.
	TopicDLQ = "dlq.deposit-sessions"
)

// Ключи для headers сообщений Kafka.
const (
	// HeaderTraceID - идентификатор трассировки запроса.
	HeaderTraceID = "trace_id"

	// HeaderCorrelationID - идентификатор корреляции бизнес-операции.
	HeaderCorrelationID = "correlation_id"

	// HeaderTimestamp - временная метка создания сообщения.
	HeaderTimestamp = "timestamp"
)

// Config содержит настройки для подключения к Kafka.
type Config struct {
	// Brokers - список адресов брокеров Kafka.
	Brokers []string
}

// Message представляет сообщение Kafka с метаданными.
type Message struct {
	Key     []byte            // Ключ сообщения для партиционирования
	Value   []byte            // Тело сообщения (payload)
	Topic   string            // Топик сообщения
	Headers map[string]string // Заголовки (trace_id, correlation_id и т.д.)
	Time    time.Time         // Временная метка сообщения
}

// toKafkaMessage конвертирует Message в kafka.Message.
func (m *Message) toKafkaMessage() kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafka.Header{
			Key:   k,
			Value: []byte(v),
		})
	}

	return kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Topic:   m.Topic,
		Headers: headers,
		Time:    m.Time,
	}
}

// TraceIDFromContext извлекает trace_id из context.
// Делегирует в pkg/logger для единообразной работы с контекстом.
func TraceIDFromContext(ctx context.Context) string {
	return logger.TraceIDFromContext(ctx)
}

// CorrelationIDFromContext извлекает correlation_id из context.
func CorrelationIDFromContext(ctx context.Context) string {
	return logger.CorrelationIDFromContext(ctx)
}
