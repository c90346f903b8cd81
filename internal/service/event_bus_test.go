package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"studyroom-be/internal/dto"
	"studyroom-be/internal/pkg/logger"
	"studyroom-be/pkg/events"
	pktNats "studyroom-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	ps := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { ps.Close() })
	return ps
}

func TestPublisherWritesBaseEvent(t *testing.T) {
	ps := newTestPubSub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := ps.Subscribe(ctx, "studyroom.events")
	require.NoError(t, err)

	pub := NewPublisherService("studyroom.events", ps)
	require.NoError(t, pub.Publish(ctx, events.New(events.TypeTodosChanged, map[string]interface{}{"count": 2})))

	select {
	case msg := <-messages:
		var got events.BaseEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, events.TypeTodosChanged, got.Type)
		assert.Equal(t, float64(2), got.Data["count"])
		assert.False(t, got.OccurredAt.IsZero())
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("event not published")
	}
}

type outletFunc func(ctx context.Context, event events.Event) error

func (f outletFunc) Publish(ctx context.Context, event events.Event) error {
	return f(ctx, event)
}

func TestConsumerForwardsToOutlet(t *testing.T) {
	ps := newTestPubSub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	forwarded := make(chan events.Event, 4)
	outlet := outletFunc(func(_ context.Context, e events.Event) error {
		forwarded <- e
		return nil
	})
	require.NoError(t, NewConsumerService(ps, "studyroom.events", outlet, logger.NewNopLogger()).Consume(ctx))

	pub := NewPublisherService("studyroom.events", ps)
	require.NoError(t, pub.Publish(ctx, events.New(events.TypeChatMessagePosted, map[string]interface{}{"id": "1"})))

	select {
	case e := <-forwarded:
		assert.Equal(t, events.TypeChatMessagePosted, e.EventType())
		assert.Equal(t, "1", e.Payload()["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}
}

func TestConsumerAcksUnforwardableEvents(t *testing.T) {
	ps := newTestPubSub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	outlet := outletFunc(func(context.Context, events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("nats down")
	})
	require.NoError(t, NewConsumerService(ps, "studyroom.events", outlet, logger.NewNopLogger()).Consume(ctx))

	require.NoError(t, ps.Publish("studyroom.events", message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	pub := NewPublisherService("studyroom.events", ps)
	require.NoError(t, pub.Publish(ctx, events.New(events.TypeTodosChanged, nil)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, 2*time.Second, 10*time.Millisecond)

	// no redelivery
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

type fakeEventSubscriber struct {
	subject string
	durable string
	handler pktNats.EventHandler
	err     error
}

func (f *fakeEventSubscriber) Subscribe(_ context.Context, subject, durableName string, handler pktNats.EventHandler) error {
	f.subject = subject
	f.durable = durableName
	f.handler = handler
	return f.err
}

func TestNotificationServiceRelaysAnnouncements(t *testing.T) {
	sub := &fakeEventSubscriber{}
	b := &recordingBroadcaster{}
	svc := NewNotificationService(sub, b, logger.NewNopLogger())

	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, "events.ANNOUNCEMENT", sub.subject)
	assert.Equal(t, "studyroom-announcements", sub.durable)

	require.NoError(t, sub.handler(context.Background(), events.New(events.TypeAnnouncement, map[string]interface{}{"message": "quiet hours"})))
	require.NoError(t, sub.handler(context.Background(), events.New(events.TypeTodosChanged, nil)))

	msgs := b.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, dto.KindAnnouncement, msgs[0].Type)
	assert.Equal(t, "quiet hours", msgs[0].Data.(map[string]interface{})["message"])
}

func TestNotificationServiceStartError(t *testing.T) {
	sub := &fakeEventSubscriber{err: errors.New("no stream")}
	svc := NewNotificationService(sub, &recordingBroadcaster{}, logger.NewNopLogger())

	assert.Error(t, svc.Start(context.Background()))
}
