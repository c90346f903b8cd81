package service

import (
	"context"
	"encoding/json"

	"studyroom-be/internal/pkg/logger"
	"studyroom-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process event bus. Every event is logged and,
// when an outlet is configured, forwarded to it (NATS in production).
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	outlet     EventPublisher
	logger     logger.ILogger
}

func NewConsumerService(subscriber message.Subscriber, topicName string, outlet EventPublisher, log logger.ILogger) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		outlet:     outlet,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal event", map[string]interface{}{"message_id": msg.UUID, "error": err})
		msg.Ack() // never becomes valid
		return
	}

	cs.logger.Info("ConsumerService", "Domain event", map[string]interface{}{
		"event": event.Type,
		"data":  event.Data,
	})

	if cs.outlet != nil {
		if err := cs.outlet.Publish(ctx, event); err != nil {
			// gochannel redelivers a nacked message immediately, so an
			// unreachable outlet would spin; the event is dropped instead.
			cs.logger.Warn("ConsumerService", "Failed to forward event", map[string]interface{}{"event": event.Type, "error": err.Error()})
		}
	}
	msg.Ack()
}
