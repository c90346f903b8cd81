package service

import (
	"context"
	"fmt"

	"studyroom-be/internal/dto"
	"studyroom-be/internal/pkg/logger"
	"studyroom-be/pkg/events"
	pktNats "studyroom-be/pkg/nats" // Renamed to avoid collision
)

const announcementDurable = "studyroom-announcements"

// EventSubscriber is satisfied by *pktNats.Subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

// NotificationService relays operator announcements published on
// events.ANNOUNCEMENT to every connected client.
type NotificationService struct {
	subscriber EventSubscriber
	delivery   Broadcaster
	logger     logger.ILogger
}

func NewNotificationService(sub EventSubscriber, delivery Broadcaster, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start(ctx context.Context) error {
	subject := pktNats.SubjectPrefix + events.TypeAnnouncement
	if err := s.subscriber.Subscribe(ctx, subject, announcementDurable, s.handleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to start announcement subscriber", map[string]interface{}{"error": err})
		return err
	}
	s.logger.Info("NotificationService", fmt.Sprintf("Notification service started, listening to %s", subject), nil)
	return nil
}

func (s *NotificationService) handleEvent(_ context.Context, event events.Event) error {
	if event.EventType() != events.TypeAnnouncement {
		s.logger.Debug("NotificationService", fmt.Sprintf("Ignoring event: %s", event.EventType()), nil)
		return nil
	}

	s.logger.Info("NotificationService", "Broadcasting announcement", map[string]interface{}{"data": event.Payload()})
	return s.delivery.Broadcast(dto.OutboundMessage{Type: dto.KindAnnouncement, Data: event.Payload()})
}
