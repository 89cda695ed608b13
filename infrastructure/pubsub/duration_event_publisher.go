package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
)

// NewPubSub creates a Google Cloud Pub/Sub client for projectID.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}

// DurationEventPublisher sends DurationChangedEvent messages to one topic.
// The topic is created on first use when it does not exist.
type DurationEventPublisher struct {
	client  *pubsub.Client
	topicID string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewDurationEventPublisher(client *pubsub.Client, topicID string) *DurationEventPublisher {
	return &DurationEventPublisher{client: client, topicID: topicID}
}

var _ repository.IDurationEventPublisher = (*DurationEventPublisher)(nil)

func (p *DurationEventPublisher) PublishDurationChanged(ctx context.Context, event model.DurationChangedEvent) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"videoContentId": event.VideoContentID,
			"source":         string(event.Source),
			"runId":          event.RunID,
		},
	}).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish duration change: %w", err)
	}

	logger.GetLogger().WithField("server ID", serverID).WithField("videoContentId", event.VideoContentID).Debug("Duration change published")
	return nil
}

func (p *DurationEventPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}

	topic := p.client.Topic(p.topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicID).Info("Topic doesn't exist - creating it")
		if topic, err = p.client.CreateTopic(ctx, p.topicID); err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

// Stop flushes pending messages.
func (p *DurationEventPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
