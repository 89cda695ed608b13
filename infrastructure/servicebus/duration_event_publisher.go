package servicebus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"
)

// NewServiceBus creates a client for namespace, a fully qualified namespace
// authenticated with the default Azure credential chain. A connection string
// is accepted as well.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace not configured")
	}
	if strings.HasPrefix(namespace, "Endpoint=") {
		return azservicebus.NewClientFromConnectionString(namespace, nil)
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// DurationEventPublisher sends DurationChangedEvent messages to one queue.
type DurationEventPublisher struct {
	client *azservicebus.Client
	queue  string

	mu     sync.Mutex
	sender messageSender
}

func NewDurationEventPublisher(client *azservicebus.Client, queue string) *DurationEventPublisher {
	return &DurationEventPublisher{client: client, queue: queue}
}

var _ repository.IDurationEventPublisher = (*DurationEventPublisher)(nil)

func (p *DurationEventPublisher) PublishDurationChanged(ctx context.Context, event model.DurationChangedEvent) error {
	sender, err := p.getSender()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while making new sender service bus.")
		return err
	}
	if sender == nil {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &azservicebus.Message{
		Body:        body,
		ContentType: to.Ptr("application/json"),
		Subject:     to.Ptr("DurationChanged"),
		MessageID:   to.Ptr(event.RunID + ":" + event.VideoContentID),
		ApplicationProperties: map[string]any{
			"videoContentId": event.VideoContentID,
			"source":         string(event.Source),
		},
	}
	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return fmt.Errorf("send duration change: %w", err)
	}
	return nil
}

func (p *DurationEventPublisher) getSender() (messageSender, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender != nil {
		return p.sender, nil
	}
	if p.client == nil {
		return nil, nil
	}
	sender, err := p.client.NewSender(p.queue, nil)
	if err != nil {
		return nil, err
	}
	p.sender = sender
	return sender, nil
}

func (p *DurationEventPublisher) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender == nil {
		return
	}
	if err := p.sender.Close(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while closing sender.")
	}
	p.sender = nil
}
