package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	internalWS "bi-ops-be/internal/websocket"
)

// FeedMessage is the in-process envelope between the domain services and the
// websocket feed consumer.
type FeedMessage struct {
	UserID uuid.UUID         `json:"user_id"`
	Update internalWS.Update `json:"update"`
}

type IPublisherService interface {
	PublishFeedUpdate(ctx context.Context, userID uuid.UUID, update internalWS.Update) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (s *publisherService) PublishFeedUpdate(ctx context.Context, userID uuid.UUID, update internalWS.Update) error {
	payload, err := json.Marshal(FeedMessage{UserID: userID, Update: update})
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.pubSub.Publish(s.topicName, msg)
}
