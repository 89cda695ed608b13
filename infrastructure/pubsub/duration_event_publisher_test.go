package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"

	gpubsub "cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/pubsub"
)

func TestDurationEventPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := gpubsub.NewClient(ctx, "coomunity-test", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	publisher := pubsub.NewDurationEventPublisher(client, "video-duration-changed")
	defer publisher.Stop()

	event := model.DurationChangedEvent{
		VideoContentID: "vc-1",
		ExternalID:     "dQw4w9WgXcQ",
		OldSeconds:     480,
		NewSeconds:     212,
		Source:         model.TierAPI,
		RunID:          "run-1",
	}
	require.NoError(t, publisher.PublishDurationChanged(ctx, event))
	require.NoError(t, publisher.PublishDurationChanged(ctx, event))

	messages := srv.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "vc-1", messages[0].Attributes["videoContentId"])
	assert.Equal(t, "api", messages[0].Attributes["source"])

	var got model.DurationChangedEvent
	require.NoError(t, json.Unmarshal(messages[0].Data, &got))
	assert.Equal(t, 212, got.NewSeconds)
	assert.Equal(t, "dQw4w9WgXcQ", got.ExternalID)
}

func TestDurationEventPublisher_NilClient(t *testing.T) {
	publisher := pubsub.NewDurationEventPublisher(nil, "video-duration-changed")
	assert.NoError(t, publisher.PublishDurationChanged(context.Background(), model.DurationChangedEvent{}))
	publisher.Stop()
}

func TestNewPubSub_RequiresProject(t *testing.T) {
	_, err := pubsub.NewPubSub(context.Background(), "")
	assert.Error(t, err)
}
