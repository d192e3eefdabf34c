package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultQueue receives ticket lifecycle events.
const DefaultQueue = "tickets.events"

type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher forwards events as persistent JSON messages to a durable
// queue on the default exchange. One channel is shared by all publishes.
type AMQPPublisher struct {
	queue       string
	logger      *zap.Logger
	openChannel func() (amqpChannel, error)
	closeConn   func() error

	mu sync.Mutex
	ch amqpChannel
}

// DialAMQP connects to the broker, opens the publishing channel and declares
// the queue.
func DialAMQP(url, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	p := newAMQPPublisher(queue, logger,
		func() (amqpChannel, error) { return conn.Channel() },
		conn.Close,
	)
	p.mu.Lock()
	_, err = p.channel()
	p.mu.Unlock()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

func newAMQPPublisher(queue string, logger *zap.Logger, open func() (amqpChannel, error), closeConn func() error) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{queue: queue, logger: logger, openChannel: open, closeConn: closeConn}
}

// channel returns the shared channel, opening it and declaring the queue
// when none is held. Callers hold p.mu.
func (p *AMQPPublisher) channel() (amqpChannel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	ch, err := p.openChannel()
	if err != nil {
		p.logger.Warn("amqp channel open failed", zap.Error(err))
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.logger.Warn("amqp queue declare failed", zap.String("queue", p.queue), zap.Error(err))
		_ = ch.Close()
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

// dropChannel discards a channel the broker may have closed after an error.
// Callers hold p.mu.
func (p *AMQPPublisher) dropChannel() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
}

// Handle publishes the event. Errors are logged and returned so the
// dispatcher can report them; they never fail the originating request.
func (p *AMQPPublisher) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.logger.Warn("amqp publish failed", zap.String("event_id", event.ID), zap.Error(err))
		p.dropChannel()
		return err
	}
	return nil
}

// Close releases the channel and the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	p.dropChannel()
	p.mu.Unlock()
	if p.closeConn == nil {
		return nil
	}
	return p.closeConn()
}
