package service

import (
	"context"
	"encoding/json"

	"bi-ops-be/internal/pkg/logger"
	internalWS "bi-ops-be/internal/websocket"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IFeedService drains the in-process feed topic and forwards each update to
// the websocket hub, which handles local delivery and Redis fanout.
type IFeedService interface {
	Consume(ctx context.Context) error
}

type feedService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewFeedService(pubSub *gochannel.GoChannel, topicName string, hub *internalWS.Hub, log logger.ILogger) IFeedService {
	return &feedService{
		pubSub:    pubSub,
		topicName: topicName,
		hub:       hub,
		logger:    log,
	}
}

func (s *feedService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(msg)
		}
	}()

	return nil
}

func (s *feedService) processMessage(msg *message.Message) {
	var payload FeedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("FeedService", "Failed to unmarshal feed message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // invalid payloads are not retriable
		return
	}

	s.hub.Send(payload.UserID, payload.Update)
	msg.Ack()
}
