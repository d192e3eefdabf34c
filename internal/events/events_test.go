package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/domain"
)

func TestDispatcherInvokesAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(zaptest.NewLogger(t))
	var calls []string

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("sink down")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketCreated, TicketID: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

type fakeChannel struct {
	declares   int
	declared   string
	published  []amqp.Publishing
	routingKey string
	publishErr error
	closed     bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	f.declares++
	f.declared = name
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.routingKey = key
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisherHandle(t *testing.T) {
	ch := &fakeChannel{}
	p := newAMQPPublisher("", zaptest.NewLogger(t), func() (amqpChannel, error) { return ch, nil }, nil)

	event := Event{
		ID:        "evt-1",
		Type:      EventTicketStatusChanged,
		TicketID:  3,
		Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Payload: TicketStatusChangedPayload{
			OldStatus: domain.StatusPending,
			NewStatus: domain.StatusInProgress,
		},
	}
	require.NoError(t, p.Handle(context.Background(), event))

	assert.Equal(t, DefaultQueue, ch.declared)
	assert.Equal(t, DefaultQueue, ch.routingKey)
	assert.False(t, ch.closed)
	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "evt-1", msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "ticket_status_changed", body["type"])
	payload := body["payload"].(map[string]any)
	assert.Equal(t, "Pendiente", payload["old_status"])
	assert.Equal(t, "En_Proceso", payload["new_status"])
}

func TestAMQPPublisherErrors(t *testing.T) {
	t.Run("channel open", func(t *testing.T) {
		p := newAMQPPublisher("q", zaptest.NewLogger(t), func() (amqpChannel, error) {
			return nil, errors.New("connection closed")
		}, nil)
		assert.Error(t, p.Handle(context.Background(), Event{ID: "x"}))
	})

	t.Run("publish", func(t *testing.T) {
		ch := &fakeChannel{publishErr: errors.New("nack")}
		p := newAMQPPublisher("q", zaptest.NewLogger(t), func() (amqpChannel, error) { return ch, nil }, nil)
		assert.Error(t, p.Handle(context.Background(), Event{ID: "x"}))
		assert.True(t, ch.closed)
	})
}

func TestAMQPPublisherReusesChannel(t *testing.T) {
	ch := &fakeChannel{}
	opened := 0
	connClosed := false
	p := newAMQPPublisher("q", zaptest.NewLogger(t), func() (amqpChannel, error) {
		opened++
		return ch, nil
	}, func() error {
		connClosed = true
		return nil
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Handle(context.Background(), Event{ID: "e", Type: EventTicketCreated}))
	}
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, ch.declares)
	assert.Len(t, ch.published, 3)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
	assert.True(t, connClosed)
}

func TestAMQPPublisherReopensAfterFailure(t *testing.T) {
	broken := &fakeChannel{publishErr: errors.New("channel closed")}
	healthy := &fakeChannel{}
	channels := []*fakeChannel{broken, healthy}
	p := newAMQPPublisher("q", zaptest.NewLogger(t), func() (amqpChannel, error) {
		next := channels[0]
		channels = channels[1:]
		return next, nil
	}, nil)

	assert.Error(t, p.Handle(context.Background(), Event{ID: "a"}))
	assert.True(t, broken.closed)

	require.NoError(t, p.Handle(context.Background(), Event{ID: "b"}))
	require.Len(t, healthy.published, 1)
	assert.Equal(t, "b", healthy.published[0].MessageId)
	assert.Equal(t, 1, healthy.declares)
}
