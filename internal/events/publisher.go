// Package events publishes schedule lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultQueue is the routing key used when none is configured.
const DefaultQueue = "schedule.completed"

// ScheduleCompletedEvent is emitted once per finished run.
type ScheduleCompletedEvent struct {
	RunID       string    `json:"runId"`
	Success     bool      `json:"success"`
	Scheduled   int       `json:"scheduled"`
	Unscheduled int       `json:"unscheduled"`
	Policy      string    `json:"policy"`
	RolledBack  bool      `json:"rolledBack"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Publisher delivers schedule events.
type Publisher interface {
	PublishScheduleCompleted(ctx context.Context, event ScheduleCompletedEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishScheduleCompleted(context.Context, ScheduleCompletedEvent) error {
	return nil
}

// AMQPPublisher opens a connection per event and publishes a persistent
// JSON message on the default exchange with the queue name as routing key.
// Runs are infrequent so no connection is held between publishes.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *zap.Logger
	dial   func(url string) (*amqp.Connection, error)
}

func NewAMQPPublisher(url, queue string, logger *zap.Logger) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{url: url, queue: queue, logger: logger, dial: amqp.Dial}
}

// Queue returns the routing key events are published under.
func (p *AMQPPublisher) Queue() string {
	return p.queue
}

func (p *AMQPPublisher) PublishScheduleCompleted(ctx context.Context, event ScheduleCompletedEvent) error {
	msg, err := NewMessage(event, time.Now().UTC())
	if err != nil {
		return err
	}

	conn, err := p.dial(p.url)
	if err != nil {
		p.logger.Warn("amqp dial failed", zap.Error(err))
		return fmt.Errorf("dial amqp: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}

	p.logger.Debug("schedule event published", zap.String("queue", p.queue), zap.String("run_id", event.RunID))
	return nil
}

// NewMessage encodes event as a persistent JSON publishing.
func NewMessage(event ScheduleCompletedEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal schedule event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RunID,
		Type:         DefaultQueue,
		Timestamp:    now,
		Body:         body,
	}, nil
}
