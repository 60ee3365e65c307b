package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
)

// PubSubTopicPublisher publishes realtime order messages to a Pub/Sub topic.
// Every message goes to one physical topic; the logical channel travels as a
// message attribute and subscribers filter on it.
type PubSubTopicPublisher struct {
	topic *pubsub.Topic
}

// NewPubSubTopicPublisher constructs a Pub/Sub backed topic publisher.
func NewPubSubTopicPublisher(topic *pubsub.Topic) (*PubSubTopicPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub topic publisher: topic is required")
	}
	return &PubSubTopicPublisher{topic: topic}, nil
}

// Publish enqueues a message tagged with its logical channel.
func (p *PubSubTopicPublisher) Publish(ctx context.Context, channel string, message []byte) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub topic publisher: not initialised")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return errors.New("pubsub topic publisher: channel is required")
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       message,
		Attributes: map[string]string{"channel": channel},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}
