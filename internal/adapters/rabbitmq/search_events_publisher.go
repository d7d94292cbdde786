package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
)

const publishTimeout = 10 * time.Second

// AMQPPublisher - то, что адаптеру нужно от rabbitmq_producer.Publisher.
type AMQPPublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// SearchEventsPublisher - реализация порта SearchEventPublisherPort для RabbitMQ
type SearchEventsPublisher struct {
	producer   AMQPPublisher
	routingKey string
}

// NewSearchEventsPublisher - конструктор
func NewSearchEventsPublisher(producer AMQPPublisher, routingKey string) (*SearchEventsPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &SearchEventsPublisher{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

func (a *SearchEventsPublisher) PublishSearchPerformed(ctx context.Context, event domain.SearchEvent) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "SearchEventsPublisher",
		"routing_key": a.routingKey,
		"session_id":  event.SessionID,
	})

	body, err := json.Marshal(event)
	if err != nil {
		adapterLogger.Error("Failed to marshal search event", err, nil)
		return fmt.Errorf("failed to marshal search event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Headers:      make(amqp.Table),
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish search event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish search event: %w", err)
	}

	adapterLogger.Debug("Search event published", port.Fields{"query": event.Query, "total": event.Total})
	return nil
}
